package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/services"
	"github.com/ochairo/testlibrary/internal/external-adapters/yaml"
)

// descriptorOutput is the JSON form of an artifact descriptor
type descriptorOutput struct {
	Product  string `json:"product"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
}

func newDescriptorOutput(d entities.ArtifactDescriptor) descriptorOutput {
	return descriptorOutput{
		Product:  d.ProductName,
		Version:  d.Version,
		Platform: d.PlatformConstraint,
		URL:      d.ArtifactURL,
		Checksum: d.ContentChecksum,
	}
}

// targetFlags are shared by resolve and fetch
type targetFlags struct {
	version         string
	platform        string
	platformVersion string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.version, "version", "", "Release version (default: newest release)")
	cmd.Flags().StringVar(&f.platform, "platform", "ios", "Target platform")
	cmd.Flags().StringVar(&f.platformVersion, "platform-version", "", "Target platform version, e.g. 16.0")
}

func (f *targetFlags) target() entities.Target {
	return entities.Target{
		Platform: strings.ToLower(strings.TrimSpace(f.platform)),
		Version:  strings.TrimSpace(f.platformVersion),
	}
}

func productArg(args []string) string {
	if len(args) == 0 {
		return yaml.DefaultManifestName
	}
	return args[0]
}

func resolveCmd(a *app) *cobra.Command {
	var flags targetFlags

	cmd := &cobra.Command{
		Use:   "resolve [product]",
		Short: "Resolve the binary artifact for a build target",
		Long: `Resolve the artifact descriptor (URL and checksum) of a product release
for a build target. Nothing is downloaded.`,
		Example: `  testlibrary resolve
  testlibrary resolve TestLibrary --platform ios --platform-version 16.0
  testlibrary resolve --version 1.0.2 --json`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := a.repository().GetManifest(cmd.Context(), productArg(args))
			if err != nil {
				return err
			}

			descriptor, err := services.NewResolverService().Resolve(manifest, flags.version, flags.target())
			if err != nil {
				return err
			}

			return a.output(cmd.OutOrStdout(), newDescriptorOutput(descriptor), func(w io.Writer) {
				fmt.Fprintf(w, "%s %s (%s)\n", descriptor.ProductName, descriptor.Version, descriptor.PlatformConstraint)
				fmt.Fprintf(w, "  URL:      %s\n", descriptor.ArtifactURL)
				fmt.Fprintf(w, "  Checksum: %s\n", descriptor.ContentChecksum)
			})
		},
	}

	flags.register(cmd)
	return cmd
}
