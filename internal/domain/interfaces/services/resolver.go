// Package services defines interfaces for domain service contracts.
package services

import "github.com/ochairo/testlibrary/internal/domain/entities"

// ManifestResolver turns a manifest into the descriptor for one build target
type ManifestResolver interface {
	// Resolve returns the descriptor for version on target; an empty version selects the newest release
	Resolve(manifest *entities.Manifest, version string, target entities.Target) (entities.ArtifactDescriptor, error)

	// Versions lists released versions in ascending order
	Versions(manifest *entities.Manifest) []string
}
