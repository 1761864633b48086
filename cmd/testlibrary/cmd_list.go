package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain-adapters/gateways"
	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
	"github.com/ochairo/testlibrary/internal/domain/services"
)

type manifestOutput struct {
	Name      string   `json:"name"`
	Platforms []string `json:"platforms"`
	Versions  []string `json:"versions"`
	Fetched   []string `json:"fetched"`
	Problem   string   `json:"problem,omitempty"`
}

func listCmd(a *app) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List manifests and their releases",
		Example: `  testlibrary list
  testlibrary list --platform ios`,
		Args: maximumArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo := a.repository()

			var manifests []*entities.Manifest
			var err error
			if platform != "" {
				manifests, err = repo.GetManifestsByPlatform(cmd.Context(), platform)
			} else {
				manifests, err = repo.ListManifests(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to list manifests: %w", err)
			}

			resolver := services.NewResolverService()
			finder := gateways.NewArtifactFinder()
			out := make([]manifestOutput, 0, len(manifests))
			for _, m := range manifests {
				platforms := make([]string, 0, len(m.Platforms))
				for _, p := range m.Platforms {
					platforms = append(platforms, p.String())
				}

				fetched, err := finder.FindByProduct(a.cfg.ArtifactsDir, m.ProductName)
				if err != nil {
					return err
				}
				names := make([]string, 0, len(fetched))
				for _, path := range fetched {
					names = append(names, filepath.Base(path))
				}

				entry := manifestOutput{
					Name:      m.ProductName,
					Platforms: platforms,
					Versions:  resolver.Versions(m),
					Fetched:   names,
				}
				if err := resolver.ValidateManifest(m); err != nil {
					a.logger.Warn("manifest has invalid releases",
						interfaces.F("product", m.ProductName),
						interfaces.F("error", err.Error()))
					entry.Problem = err.Error()
				}
				out = append(out, entry)
			}

			return a.output(cmd.OutOrStdout(), out, func(w io.Writer) {
				if platform != "" {
					fmt.Fprintf(w, "Manifests for platform %s (%d total):\n\n", platform, len(out))
				} else {
					fmt.Fprintf(w, "Available manifests (%d total):\n\n", len(out))
				}
				for _, m := range out {
					fmt.Fprintf(w, "  %-20s Platforms: %s\n", m.Name, strings.Join(m.Platforms, ", "))
					fmt.Fprintf(w, "  %-20s Releases:  %s\n", "", strings.Join(m.Versions, ", "))
					if len(m.Fetched) > 0 {
						fmt.Fprintf(w, "  %-20s Fetched:   %s\n", "", strings.Join(m.Fetched, ", "))
					}
					if m.Problem != "" {
						fmt.Fprintf(w, "  %-20s ⚠️  %s\n", "", m.Problem)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform (e.g., ios)")
	return cmd
}
