// Package gateways implements the domain gateway interfaces.
package gateways

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// checksumVerifier implements checksum verification using pure Go
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file against a hex digest.
// The algorithm is chosen from the digest length (sha256, sha384 or sha512).
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	expected := strings.ToLower(strings.TrimSpace(expectedSum))
	algorithm := entities.AlgorithmForDigest(expected)
	if algorithm == entities.AlgorithmUnknown {
		return fmt.Errorf("%w: unsupported checksum %q", entities.ErrInvalidManifest, expectedSum)
	}

	actual, err := v.calculate(ctx, filePath, algorithm)
	if err != nil {
		return err
	}

	if actual != expected {
		return &entities.ChecksumMismatchError{
			Algorithm: algorithm,
			Expected:  expected,
			Actual:    actual,
		}
	}

	return nil
}

// CalculateChecksum calculates the digest of a file with the given algorithm
func (v *checksumVerifier) CalculateChecksum(filePath string, algorithm entities.ChecksumAlgorithm) (string, error) {
	return v.calculate(context.Background(), filePath, algorithm)
}

func (v *checksumVerifier) calculate(ctx context.Context, filePath string, algorithm entities.ChecksumAlgorithm) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	//nolint:gosec // G304: File path is user-provided for checksum verification
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, &contextReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algorithm entities.ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case entities.AlgorithmSHA256:
		return sha256.New(), nil
	case entities.AlgorithmSHA384:
		return sha512.New384(), nil
	case entities.AlgorithmSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// contextReader stops reading once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
