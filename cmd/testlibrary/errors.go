package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain-adapters/gateways"
	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/pkg/testlibrary"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitConfigurationError indicates a bad manifest, platform or release selection.
	ExitConfigurationError = 3

	// ExitChecksumMismatch indicates an artifact failed checksum verification.
	ExitChecksumMismatch = 4

	// ExitNetworkError indicates a network or HTTP failure.
	ExitNetworkError = 5

	// ExitOverflow indicates integer overflow in add.
	ExitOverflow = 6
)

var (
	errInvalidArgs = errors.New("invalid arguments")
	errConfig      = errors.New("invalid configuration")
)

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var statusErr *gateways.HTTPStatusError
	var urlErr *url.Error

	switch {
	case errors.Is(err, errInvalidArgs):
		return ExitInvalidArgs
	case errors.Is(err, entities.ErrChecksumMismatch):
		return ExitChecksumMismatch
	case errors.Is(err, testlibrary.ErrOverflow):
		return ExitOverflow
	case errors.Is(err, errConfig),
		errors.Is(err, entities.ErrUnsupportedPlatform),
		errors.Is(err, entities.ErrUnknownRelease),
		errors.Is(err, entities.ErrInvalidManifest),
		errors.Is(err, entities.ErrManifestNotFound):
		return ExitConfigurationError
	case errors.As(err, &statusErr),
		errors.As(err, &urlErr),
		errors.Is(err, context.DeadlineExceeded):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

func invalidArgs(err error) error {
	return fmt.Errorf("%w: %w", errInvalidArgs, err)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return invalidArgs(err)
		}
		return nil
	}
}

func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return invalidArgs(err)
		}
		return nil
	}
}
