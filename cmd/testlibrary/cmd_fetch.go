package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/testlibrary/internal/domain-orchestrators"
	ports "github.com/ochairo/testlibrary/internal/domain/interfaces/gateways"
	"github.com/ochairo/testlibrary/internal/domain/services"
)

type fetchOutput struct {
	descriptorOutput
	Path              string `json:"path"`
	Size              int64  `json:"size"`
	Cached            bool   `json:"cached"`
	SignatureVerified bool   `json:"signature_verified"`
	ExtractedPath     string `json:"extracted_path,omitempty"`
	Duration          string `json:"duration"`
}

// signatureFlags select GPG keys and a detached signature
type signatureFlags struct {
	sigPath string
	sigURL  string
	keyPath string
	keysURL string
}

func (f *signatureFlags) register(cmd *cobra.Command, withSigURL bool) {
	cmd.Flags().StringVar(&f.sigPath, "gpg-sig", "", "GPG detached signature file (.asc or .sig)")
	if withSigURL {
		cmd.Flags().StringVar(&f.sigURL, "gpg-sig-url", "", "URL of the GPG detached signature")
	}
	cmd.Flags().StringVar(&f.keyPath, "gpg-key", "", "Public key file used for GPG verification")
	cmd.Flags().StringVar(&f.keysURL, "gpg-keys-url", "", "URL to KEYS file for GPG verification")
}

// importKeys loads the requested keys into signer
func (f *signatureFlags) importKeys(cmd *cobra.Command, signer ports.SignatureVerifier) error {
	keys := ports.Source{Path: f.keyPath, URL: f.keysURL}
	if keys.IsZero() {
		return nil
	}
	return signer.ImportKeys(cmd.Context(), keys)
}

func fetchCmd(a *app) *cobra.Command {
	var (
		target  targetFlags
		sig     signatureFlags
		extract bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [product]",
		Short: "Download and verify the binary artifact for a build target",
		Long: `Resolve the artifact for a build target, download it into the artifacts
directory and verify its checksum. A previously fetched artifact is reused when
it still verifies. A file that fails verification is removed. With --extract the
verified archive is unpacked next to it.`,
		Example: `  testlibrary fetch --platform-version 16.0
  testlibrary fetch TestLibrary --version 1.0.2 --artifacts-dir ./vendor
  testlibrary fetch --gpg-sig-url https://example.com/TestLibrary.zip.asc --gpg-keys-url https://example.com/KEYS`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.httpClient()

			signer := gateways.NewSignatureGateway(client, a.logger)
			if err := sig.importKeys(cmd, signer); err != nil {
				return err
			}

			orchestrator := orchestrators.NewFetchOrchestrator(
				a.repository(),
				services.NewResolverService(),
				gateways.NewArtifactFinder(),
				gateways.NewDownloaderWithClient(client, a.logger),
				gateways.NewChecksumVerifier(),
				signer,
				orchestrators.FetchOrchestratorConfig{
					OutputDir: a.cfg.ArtifactsDir,
					Logger:    a.logger,
					Extractor: gateways.NewExtractor(),
				},
			)

			result, err := orchestrator.Fetch(cmd.Context(), orchestrators.FetchRequest{
				Product:       productArg(args),
				Version:       target.version,
				Target:        target.target(),
				SignatureURL:  sig.sigURL,
				SignaturePath: sig.sigPath,
				Extract:       extract,
			})
			if err != nil {
				return err
			}

			out := fetchOutput{
				descriptorOutput:  newDescriptorOutput(result.Descriptor),
				Path:              result.Artifact.Path,
				Size:              result.Artifact.Size,
				Cached:            result.Cached,
				SignatureVerified: result.SignatureVerified,
				ExtractedPath:     result.ExtractedPath,
				Duration:          result.TotalDuration.String(),
			}

			return a.output(cmd.OutOrStdout(), out, func(w io.Writer) {
				if result.Cached {
					fmt.Fprintf(w, "✅ %s %s already fetched\n", out.Product, out.Version)
				} else {
					fmt.Fprintf(w, "✅ Fetched %s %s (%d bytes)\n", out.Product, out.Version, out.Size)
				}
				fmt.Fprintf(w, "  Path:     %s\n", out.Path)
				fmt.Fprintf(w, "  Checksum: %s\n", out.Checksum)
				if result.SignatureVerified {
					fmt.Fprintf(w, "  🔐 GPG signature verified\n")
				}
				if out.ExtractedPath != "" {
					fmt.Fprintf(w, "  📦 Extracted to %s\n", out.ExtractedPath)
				}
			})
		},
	}

	target.register(cmd)
	sig.register(cmd, true)
	cmd.Flags().BoolVar(&extract, "extract", false, "Unzip the verified artifact into the artifacts directory")
	return cmd
}
