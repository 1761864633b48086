// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// ArtifactDownloader fetches the artifact a descriptor points at
type ArtifactDownloader interface {
	DownloadArtifact(ctx context.Context, descriptor entities.ArtifactDescriptor, outputDir string) (*entities.Artifact, error)
}

// ChecksumVerifier authenticates a local file against a hex digest.
// A mismatch must be reported as *entities.ChecksumMismatchError.
type ChecksumVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// Source points at a local file or a URL. Path takes precedence.
type Source struct {
	Path string
	URL  string
}

// IsZero reports whether neither a path nor a URL is set
func (s Source) IsZero() bool {
	return s.Path == "" && s.URL == ""
}

// SignatureVerifier checks detached OpenPGP signatures against trusted keys
type SignatureVerifier interface {
	// ImportKeys adds every key found at keys (both Path and URL when set)
	ImportKeys(ctx context.Context, keys Source) error
	VerifyDetached(ctx context.Context, filePath string, signature Source) error
	KeyCount() int
}

// ReleaseSource lists releases published for a repository
type ReleaseSource interface {
	PublishedReleases(ctx context.Context, repository string) ([]entities.PublishedRelease, error)
}

// ArtifactExtractor unpacks a fetched archive and returns the extracted directory
type ArtifactExtractor interface {
	ExtractArtifact(ctx context.Context, artifact *entities.Artifact, outputDir string) (string, error)
}
