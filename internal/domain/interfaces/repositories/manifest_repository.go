// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// ManifestRepository defines the interface for accessing package manifests
type ManifestRepository interface {
	// GetManifest retrieves a package manifest by product name
	GetManifest(ctx context.Context, name string) (*entities.Manifest, error)

	// ListManifests returns all available package manifests
	ListManifests(ctx context.Context) ([]*entities.Manifest, error)

	// GetManifestsByPlatform returns manifests that support a specific platform
	GetManifestsByPlatform(ctx context.Context, platform string) ([]*entities.Manifest, error)
}
