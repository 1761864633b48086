// Command testlibrary resolves, fetches and verifies the TestLibrary binary
// artifact and exposes the TestLibrary greeter utilities.
//
// Configuration is loaded from environment variables:
//   - TESTLIBRARY_CONFIG: YAML config file applied before the variables below (optional)
//   - TESTLIBRARY_MANIFESTS_DIR: directory of <product>.yml manifests (default: embedded manifest)
//   - TESTLIBRARY_ARTIFACTS_DIR: where fetched artifacts are stored (default: artifacts)
//   - TESTLIBRARY_LOG_LEVEL, TESTLIBRARY_LOG_FORMAT: slog level and text/json handler
//   - TESTLIBRARY_HTTP_TIMEOUT: download timeout, e.g. 2m
//   - TESTLIBRARY_TZ: IANA zone used by the time command
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCodeFromError(err))
	}
}
