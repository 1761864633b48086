package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors for manifest resolution and artifact verification.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrUnsupportedPlatform indicates the build target does not satisfy any platform constraint.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrUnknownRelease indicates the manifest has no release for the requested version.
	ErrUnknownRelease = errors.New("unknown release")

	// ErrInvalidManifest indicates a manifest field violates its format invariant.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrManifestNotFound indicates no manifest exists for the product.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrChecksumMismatch indicates a fetched artifact does not match its declared digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ConfigurationError reports a manifest that cannot be resolved for a target
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ChecksumMismatchError reports the expected and actual digests of an artifact
type ChecksumMismatchError struct {
	Algorithm ChecksumAlgorithm
	Expected  string
	Actual    string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s checksum mismatch: expected %s, got %s", e.Algorithm, e.Expected, e.Actual)
}

// Is lets errors.Is match ErrChecksumMismatch
func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
