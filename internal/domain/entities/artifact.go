// Package entities defines core domain models and data structures.
package entities

import "strings"

// ArtifactDescriptor identifies a prebuilt binary artifact and how to authenticate it.
// Descriptors are produced by resolving a Manifest and are never mutated afterwards.
type ArtifactDescriptor struct {
	ProductName        string
	Version            string
	PlatformConstraint string // e.g., "ios>=13.0"
	ArtifactURL        string
	ContentChecksum    string // lowercase hex digest
}

// Algorithm returns the checksum algorithm implied by the digest length
func (d ArtifactDescriptor) Algorithm() ChecksumAlgorithm {
	return AlgorithmForDigest(d.ContentChecksum)
}

// Filename returns the last path segment of the artifact URL
func (d ArtifactDescriptor) Filename() string {
	url := d.ArtifactURL
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return url[strings.LastIndex(url, "/")+1:]
}

// Artifact represents a fetched artifact on local disk
type Artifact struct {
	Name     string
	Version  string
	Platform string
	Path     string
	Checksum string
	Size     int64
}

// ChecksumAlgorithm names a supported digest algorithm
type ChecksumAlgorithm string

// Supported checksum algorithms
const (
	AlgorithmUnknown ChecksumAlgorithm = ""
	AlgorithmSHA256  ChecksumAlgorithm = "sha256"
	AlgorithmSHA384  ChecksumAlgorithm = "sha384"
	AlgorithmSHA512  ChecksumAlgorithm = "sha512"
)

// AlgorithmForDigest derives the algorithm from a hex digest.
// Returns AlgorithmUnknown when the digest is not lowercase hex of a supported length.
func AlgorithmForDigest(digest string) ChecksumAlgorithm {
	if !isLowerHex(digest) {
		return AlgorithmUnknown
	}

	switch len(digest) {
	case 64:
		return AlgorithmSHA256
	case 96:
		return AlgorithmSHA384
	case 128:
		return AlgorithmSHA512
	default:
		return AlgorithmUnknown
	}
}

func isLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
