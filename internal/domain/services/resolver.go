package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// ResolverService resolves manifests into artifact descriptors.
// It performs no I/O; the same inputs always produce the same descriptor.
type ResolverService struct{}

// NewResolverService creates a new resolver service
func NewResolverService() *ResolverService {
	return &ResolverService{}
}

// Resolve returns the artifact descriptor for version on target.
// An empty version selects the newest release.
func (s *ResolverService) Resolve(manifest *entities.Manifest, version string, target entities.Target) (entities.ArtifactDescriptor, error) {
	if manifest == nil {
		return entities.ArtifactDescriptor{}, &entities.ConfigurationError{Field: "manifest", Value: "", Err: entities.ErrInvalidManifest}
	}

	requirement, err := s.CheckPlatform(manifest, target)
	if err != nil {
		return entities.ArtifactDescriptor{}, err
	}

	if version == "" {
		versions := s.Versions(manifest)
		if len(versions) == 0 {
			return entities.ArtifactDescriptor{}, &entities.ConfigurationError{Field: "version", Value: "", Err: entities.ErrUnknownRelease}
		}
		version = versions[len(versions)-1]
	}

	release, ok := manifest.Binary.Releases[version]
	if !ok {
		return entities.ArtifactDescriptor{}, &entities.ConfigurationError{Field: "version", Value: version, Err: entities.ErrUnknownRelease}
	}

	descriptor := entities.ArtifactDescriptor{
		ProductName:        manifest.ProductName,
		Version:            version,
		PlatformConstraint: requirement.String(),
		ArtifactURL:        BuildArtifactURL(manifest.Binary, version, release),
		ContentChecksum:    release.Checksum,
	}

	if err := ValidateDescriptor(descriptor); err != nil {
		return entities.ArtifactDescriptor{}, err
	}

	return descriptor, nil
}

// CheckPlatform returns the requirement satisfied by target.
// The platform must be listed and target.Version (when given) must not be below its minimum.
func (s *ResolverService) CheckPlatform(manifest *entities.Manifest, target entities.Target) (entities.PlatformRequirement, error) {
	requirement, ok := manifest.Platform(target.Platform)
	if !ok {
		return entities.PlatformRequirement{}, &entities.ConfigurationError{
			Field: "platform",
			Value: target.Platform,
			Err:   fmt.Errorf("%w: %s supports %s", entities.ErrUnsupportedPlatform, manifest.ProductName, platformList(manifest.Platforms)),
		}
	}

	if target.Version != "" && requirement.MinimumVersion != "" {
		if CompareVersions(target.Version, requirement.MinimumVersion) < 0 {
			return entities.PlatformRequirement{}, &entities.ConfigurationError{
				Field: "platform",
				Value: target.String(),
				Err:   fmt.Errorf("%w: requires %s", entities.ErrUnsupportedPlatform, requirement),
			}
		}
	}

	return requirement, nil
}

// Versions lists released versions in ascending order
func (s *ResolverService) Versions(manifest *entities.Manifest) []string {
	versions := make([]string, 0, len(manifest.Binary.Releases))
	for v := range manifest.Binary.Releases {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		if c := CompareVersions(versions[i], versions[j]); c != 0 {
			return c < 0
		}
		return versions[i] < versions[j]
	})
	return versions
}

// ValidateManifest checks every release of the manifest
func (s *ResolverService) ValidateManifest(manifest *entities.Manifest) error {
	if len(manifest.Platforms) == 0 {
		return &entities.ConfigurationError{Field: "platforms", Value: "", Err: entities.ErrInvalidManifest}
	}

	for _, version := range s.Versions(manifest) {
		release := manifest.Binary.Releases[version]
		descriptor := entities.ArtifactDescriptor{
			ProductName:     manifest.ProductName,
			Version:         version,
			ArtifactURL:     BuildArtifactURL(manifest.Binary, version, release),
			ContentChecksum: release.Checksum,
		}
		if err := ValidateDescriptor(descriptor); err != nil {
			return fmt.Errorf("release %s: %w", version, err)
		}
	}

	return nil
}

// BuildArtifactURL performs template substitution for a release
func BuildArtifactURL(target entities.BinaryTarget, version string, release entities.Release) string {
	if release.URL != "" {
		return release.URL
	}

	u := target.URLTemplate
	u = strings.ReplaceAll(u, "{version}", version)
	u = strings.ReplaceAll(u, "{name}", target.Name)
	return u
}

// ValidateDescriptor enforces the checksum and URL invariants of a descriptor
func ValidateDescriptor(d entities.ArtifactDescriptor) error {
	if d.Algorithm() == entities.AlgorithmUnknown {
		return &entities.ConfigurationError{
			Field: "checksum",
			Value: d.ContentChecksum,
			Err:   fmt.Errorf("%w: expected lowercase hex sha256, sha384 or sha512 digest", entities.ErrInvalidManifest),
		}
	}

	u, err := url.Parse(d.ArtifactURL)
	if err != nil || u.Scheme != "https" || u.Host == "" || strings.ContainsAny(d.ArtifactURL, "{}") {
		return &entities.ConfigurationError{
			Field: "url",
			Value: d.ArtifactURL,
			Err:   fmt.Errorf("%w: expected absolute https URL", entities.ErrInvalidManifest),
		}
	}

	return nil
}

func platformList(platforms []entities.PlatformRequirement) string {
	if len(platforms) == 0 {
		return "no platforms"
	}
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
