package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/config"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
	"github.com/ochairo/testlibrary/internal/external-adapters/yaml"
	"github.com/ochairo/testlibrary/pkg/testlibrary"
)

// app carries state shared by every subcommand.
// cfg and logger are populated in PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger interfaces.Logger

	// transport overrides the HTTP transport used for downloads and key fetches
	transport   http.RoundTripper
	greeterOpts []testlibrary.Option

	manifestsDir string
	artifactsDir string
	logLevel     string
	jsonOutput   bool
}

func newApp() *app {
	return &app{logger: &interfaces.NoOpLogger{}}
}

func newRootCommand() *cobra.Command {
	return newApp().command()
}

// command creates the Cobra command tree.
//
// Commands provided:
//   - resolve [product] --platform --platform-version [--version]
//   - list [--platform]
//   - fetch [product] --platform --platform-version [--version] [--gpg-sig ...]
//   - verify <file> --checksum [--gpg-sig --gpg-key | --gpg-keys-url]
//   - check [product] [--github-api]
//   - greet <name>, time, add <a> <b>, version
//
// Global flags: --manifests-dir, --artifacts-dir, --log-level, --json
func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testlibrary",
		Short: "TestLibrary binary artifact manager",
		Long: `Resolve, download and verify the prebuilt TestLibrary binary for a build target,
and run the TestLibrary greeter utilities.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.init(cmd)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&a.manifestsDir, "manifests-dir", "", "Directory of <product>.yml manifests (default: embedded manifest)")
	cmd.PersistentFlags().StringVar(&a.artifactsDir, "artifacts-dir", "", "Directory for fetched artifacts")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidArgs(err)
	})

	cmd.AddCommand(resolveCmd(a))
	cmd.AddCommand(listCmd(a))
	cmd.AddCommand(fetchCmd(a))
	cmd.AddCommand(verifyCmd(a))
	cmd.AddCommand(checkCmd(a))
	cmd.AddCommand(greetCmd(a))
	cmd.AddCommand(timeCmd(a))
	cmd.AddCommand(addCmd(a))
	cmd.AddCommand(versionCmd(a))

	return cmd
}

// init loads configuration and applies flag overrides
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	flags := cmd.Flags()
	if flags.Changed("manifests-dir") {
		cfg.ManifestsDir = a.manifestsDir
	}
	if flags.Changed("artifacts-dir") {
		cfg.ArtifactsDir = a.artifactsDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	a.cfg = cfg
	a.logger = interfaces.NewSlogLogger(cfg.NewLogger(cmd.ErrOrStderr()))
	return nil
}

func (a *app) repository() *yaml.ManifestRepository {
	return yaml.NewManifestRepository(a.cfg.ManifestsDir, a.logger)
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.HTTPTimeout, Transport: a.transport}
}

func (a *app) greeter() (*testlibrary.Greeter, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	opts := append([]testlibrary.Option{testlibrary.WithLocation(loc)}, a.greeterOpts...)
	return testlibrary.New(opts...), nil
}

// output writes v as indented JSON when --json is set, otherwise calls text
func (a *app) output(w io.Writer, v any, text func(io.Writer)) error {
	if a.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
