package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain-adapters/gateways"
	"github.com/ochairo/testlibrary/internal/domain/entities"
	ports "github.com/ochairo/testlibrary/internal/domain/interfaces/gateways"
)

func verifyCmd(a *app) *cobra.Command {
	var (
		checksum string
		sig      signatureFlags
	)

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify checksums and signatures",
		Long: `Verify a local artifact against a checksum and, optionally, a GPG detached
signature.

--checksum accepts either a hex digest (sha256, sha384 or sha512) or the path
of a checksum file in "hash  filename" format.`,
		Example: `  # Verify checksum
  testlibrary verify TestLibrary-v1.0.2.xcframework.zip --checksum 1f8ab52250f5c9b36058354215e577c8d6be1af6d50ac119245170ca4e7c5ad6

  # Verify GPG signature
  testlibrary verify TestLibrary-v1.0.2.xcframework.zip --gpg-sig TestLibrary-v1.0.2.xcframework.zip.asc --gpg-key release.asc`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			w := cmd.OutOrStdout()

			if checksum == "" && sig.sigPath == "" {
				return invalidArgs(errors.New("no verification checks requested (specify --checksum or --gpg-sig)"))
			}

			fmt.Fprintf(w, "🔍 Verifying %s\n\n", filepath.Base(filePath))

			verified := 0
			var failures []error

			if checksum != "" {
				fmt.Fprintf(w, "📋 Verifying checksum...\n")
				if err := verifyChecksum(cmd, filePath, checksum); err != nil {
					fmt.Fprintf(w, "❌ Checksum verification FAILED: %v\n\n", err)
					failures = append(failures, err)
				} else {
					fmt.Fprintf(w, "✅ Checksum verified\n\n")
					verified++
				}
			}

			if sig.sigPath != "" {
				fmt.Fprintf(w, "🔐 Verifying GPG signature...\n")
				if err := verifyGPGSignature(cmd, a, filePath, &sig); err != nil {
					fmt.Fprintf(w, "❌ GPG signature verification FAILED: %v\n\n", err)
					failures = append(failures, err)
				} else {
					fmt.Fprintf(w, "✅ GPG signature verified\n\n")
					verified++
				}
			}

			fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(w, "✅ Verified: %d checks\n", verified)
			if len(failures) > 0 {
				fmt.Fprintf(w, "❌ Failed: %d checks\n", len(failures))
			}
			fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

			if len(failures) > 0 {
				return fmt.Errorf("%d verification checks failed: %w", len(failures), errors.Join(failures...))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&checksum, "checksum", "", "Expected hex digest or checksum file (.sha256, .sha512)")
	sig.register(cmd, false)
	return cmd
}

func verifyChecksum(cmd *cobra.Command, filePath, checksum string) error {
	expected := checksum
	if info, err := os.Stat(checksum); err == nil && info.Mode().IsRegular() {
		//nolint:gosec // G304: checksum is user-provided path for verification
		data, err := os.ReadFile(checksum)
		if err != nil {
			return fmt.Errorf("failed to read checksum file: %w", err)
		}

		// Parse checksum file (format: "hash  filename")
		parts := strings.Fields(string(data))
		if len(parts) < 1 {
			return invalidArgs(errors.New("invalid checksum file format"))
		}
		expected = parts[0]
	}

	if entities.AlgorithmForDigest(strings.ToLower(strings.TrimSpace(expected))) == entities.AlgorithmUnknown {
		return invalidArgs(fmt.Errorf("--checksum %q is neither a checksum file nor a sha256, sha384 or sha512 hex digest", checksum))
	}

	return gateways.NewChecksumVerifier().VerifyChecksum(cmd.Context(), filePath, expected)
}

func verifyGPGSignature(cmd *cobra.Command, a *app, filePath string, sig *signatureFlags) error {
	signer := gateways.NewSignatureGateway(a.httpClient(), a.logger)
	if err := sig.importKeys(cmd, signer); err != nil {
		return err
	}
	if signer.KeyCount() == 0 {
		return invalidArgs(errors.New("no GPG keys imported for verification (use --gpg-key or --gpg-keys-url)"))
	}

	return signer.VerifyDetached(cmd.Context(), filePath, ports.Source{Path: sig.sigPath})
}
