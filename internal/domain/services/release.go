package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// ReleaseStatus represents how a manifest compares to upstream releases
type ReleaseStatus string

// Release check statuses
const (
	StatusUpToDate        ReleaseStatus = "up_to_date"
	StatusUpdateAvailable ReleaseStatus = "update_available"
	StatusNoReleases      ReleaseStatus = "no_releases"
)

// ReleaseCheck contains the result of comparing a manifest with upstream releases
type ReleaseCheck struct {
	Status          ReleaseStatus
	Product         string
	Repository      string
	LatestKnown     string
	LatestPublished string
	// NewVersions are published versions newer than LatestKnown, ascending
	NewVersions []string
	// Untracked are published versions older than LatestKnown that the manifest lacks
	Untracked []string
}

// UpdateAvailable returns true if upstream has releases newer than the manifest
func (rc *ReleaseCheck) UpdateAvailable() bool {
	return rc.Status == StatusUpdateAvailable
}

// Summary returns a human-readable description of the check
func (rc *ReleaseCheck) Summary() string {
	switch rc.Status {
	case StatusUpToDate:
		return fmt.Sprintf("%s is up to date (%s)", rc.Product, rc.LatestKnown)
	case StatusUpdateAvailable:
		return fmt.Sprintf("%s has new releases: %s (manifest: %s)", rc.Product, strings.Join(rc.NewVersions, ", "), rc.LatestKnown)
	case StatusNoReleases:
		return fmt.Sprintf("No published releases found for %s in %s", rc.Product, rc.Repository)
	default:
		return "Unknown status"
	}
}

// ReleaseService compares manifests against upstream releases
type ReleaseService struct {
	resolver *ResolverService
}

// NewReleaseService creates a new release service
func NewReleaseService() *ReleaseService {
	return &ReleaseService{resolver: NewResolverService()}
}

// SourceRepository derives the GitHub "owner/repo" hosting a manifest's
// binaries from its artifact URL template.
func (s *ReleaseService) SourceRepository(manifest *entities.Manifest) (string, error) {
	raw := manifest.Binary.URLTemplate
	if raw == "" {
		for _, version := range s.resolver.Versions(manifest) {
			if u := manifest.Binary.Releases[version].URL; u != "" {
				raw = u
				break
			}
		}
	}

	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return "", fmt.Errorf("%s binaries are not hosted on GitHub releases: %q", manifest.ProductName, raw)
	}

	// /<owner>/<repo>/releases/download/...
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "releases" || parts[3] != "download" {
		return "", fmt.Errorf("%s URL is not a GitHub release download: %q", manifest.ProductName, raw)
	}

	return parts[0] + "/" + parts[1], nil
}

// CheckReleases compares the releases a manifest pins with those published upstream.
// Prereleases are ignored.
func (s *ReleaseService) CheckReleases(manifest *entities.Manifest, repository string, published []entities.PublishedRelease) *ReleaseCheck {
	check := &ReleaseCheck{
		Product:    manifest.ProductName,
		Repository: repository,
	}

	known := s.resolver.Versions(manifest)
	if len(known) > 0 {
		check.LatestKnown = known[len(known)-1]
	}

	versions := make([]string, 0, len(published))
	seen := make(map[string]bool, len(published))
	for _, r := range published {
		if r.Prerelease || r.Version == "" || seen[r.Version] {
			continue
		}
		seen[r.Version] = true
		versions = append(versions, r.Version)
	}
	sort.Slice(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})

	if len(versions) == 0 {
		check.Status = StatusNoReleases
		return check
	}
	check.LatestPublished = versions[len(versions)-1]

	for _, v := range versions {
		if _, ok := manifest.Binary.Releases[v]; ok {
			continue
		}
		if check.LatestKnown == "" || CompareVersions(v, check.LatestKnown) > 0 {
			check.NewVersions = append(check.NewVersions, v)
		} else {
			check.Untracked = append(check.Untracked, v)
		}
	}

	if len(check.NewVersions) > 0 {
		check.Status = StatusUpdateAvailable
	} else {
		check.Status = StatusUpToDate
	}
	return check
}
