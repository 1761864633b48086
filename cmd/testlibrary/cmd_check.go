package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/internal/domain-adapters/gateways"
	"github.com/ochairo/testlibrary/internal/domain/services"
)

type checkOutput struct {
	Product         string   `json:"product"`
	Repository      string   `json:"repository"`
	Status          string   `json:"status"`
	LatestKnown     string   `json:"latest_known,omitempty"`
	LatestPublished string   `json:"latest_published,omitempty"`
	NewVersions     []string `json:"new_versions,omitempty"`
	Untracked       []string `json:"untracked,omitempty"`
}

func checkCmd(a *app) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "check [product]",
		Short: "Check GitHub for releases missing from the manifest",
		Long: `Compare the releases pinned in a manifest with the releases published on the
GitHub repository hosting its binaries. GITHUB_TOKEN or GH_TOKEN raises the API
rate limit.`,
		Example: `  testlibrary check
  testlibrary check TestLibrary --json`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := a.repository().GetManifest(cmd.Context(), productArg(args))
			if err != nil {
				return err
			}

			releases := services.NewReleaseService()
			repository, err := releases.SourceRepository(manifest)
			if err != nil {
				return fmt.Errorf("%w: %w", errConfig, err)
			}

			token := os.Getenv("GITHUB_TOKEN")
			if token == "" {
				token = os.Getenv("GH_TOKEN")
			}
			github := gateways.NewHTTPGitHubGateway(token, a.logger,
				gateways.WithGitHubAPI(apiURL),
				gateways.WithGitHubClient(a.httpClient()))

			published, err := github.PublishedReleases(cmd.Context(), repository)
			if err != nil {
				return fmt.Errorf("failed to list releases of %s: %w", repository, err)
			}

			check := releases.CheckReleases(manifest, repository, published)
			out := checkOutput{
				Product:         check.Product,
				Repository:      check.Repository,
				Status:          string(check.Status),
				LatestKnown:     check.LatestKnown,
				LatestPublished: check.LatestPublished,
				NewVersions:     check.NewVersions,
				Untracked:       check.Untracked,
			}

			return a.output(cmd.OutOrStdout(), out, func(w io.Writer) {
				if check.UpdateAvailable() {
					fmt.Fprintf(w, "🆕 %s\n", check.Summary())
				} else {
					fmt.Fprintf(w, "✅ %s\n", check.Summary())
				}
				if len(check.Untracked) > 0 {
					fmt.Fprintf(w, "  Not in manifest: %s\n", strings.Join(check.Untracked, ", "))
				}
			})
		},
	}

	cmd.Flags().StringVar(&apiURL, "github-api", "", "GitHub API base URL (default: https://api.github.com)")
	return cmd
}
