package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

func releaseManifest(versions ...string) *entities.Manifest {
	releases := make(map[string]entities.Release, len(versions))
	for _, v := range versions {
		releases[v] = entities.Release{Checksum: strings.Repeat("a", 64)}
	}
	return &entities.Manifest{
		ProductName: "TestLibrary",
		Platforms:   []entities.PlatformRequirement{{Name: "ios", MinimumVersion: "13.0"}},
		Binary: entities.BinaryTarget{
			Name:        "TestLibrary",
			URLTemplate: "https://github.com/OdNairy/TestBinaryDependency/releases/download/{version}/{name}-v{version}.xcframework.zip",
			Releases:    releases,
		},
	}
}

func published(versions ...string) []entities.PublishedRelease {
	out := make([]entities.PublishedRelease, len(versions))
	for i, v := range versions {
		out[i] = entities.PublishedRelease{Version: v, Tag: v}
	}
	return out
}

func TestCheckReleases(t *testing.T) {
	tests := []struct {
		name          string
		manifest      *entities.Manifest
		published     []entities.PublishedRelease
		wantStatus    ReleaseStatus
		wantNew       []string
		wantUntracked []string
		wantLatest    string
	}{
		{
			name:       "up to date",
			manifest:   releaseManifest("1.0.2"),
			published:  published("1.0.2"),
			wantStatus: StatusUpToDate,
			wantLatest: "1.0.2",
		},
		{
			name:       "newer releases",
			manifest:   releaseManifest("1.0.2"),
			published:  published("1.0.10", "1.0.2", "1.0.3"),
			wantStatus: StatusUpdateAvailable,
			wantNew:    []string{"1.0.3", "1.0.10"},
			wantLatest: "1.0.10",
		},
		{
			name:          "older releases missing from manifest",
			manifest:      releaseManifest("1.0.2"),
			published:     published("1.0.0", "1.0.1", "1.0.2"),
			wantStatus:    StatusUpToDate,
			wantUntracked: []string{"1.0.0", "1.0.1"},
			wantLatest:    "1.0.2",
		},
		{
			name:     "prereleases ignored",
			manifest: releaseManifest("1.0.2"),
			published: []entities.PublishedRelease{
				{Version: "1.0.2", Tag: "1.0.2"},
				{Version: "1.1.0-beta", Tag: "1.1.0-beta", Prerelease: true},
			},
			wantStatus: StatusUpToDate,
			wantLatest: "1.0.2",
		},
		{
			name:       "nothing published",
			manifest:   releaseManifest("1.0.2"),
			published:  nil,
			wantStatus: StatusNoReleases,
		},
		{
			name:       "manifest without releases",
			manifest:   releaseManifest(),
			published:  published("1.0.0"),
			wantStatus: StatusUpdateAvailable,
			wantNew:    []string{"1.0.0"},
			wantLatest: "1.0.0",
		},
	}

	service := NewReleaseService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := service.CheckReleases(tt.manifest, "OdNairy/TestBinaryDependency", tt.published)

			assert.Equal(t, tt.wantStatus, check.Status)
			assert.Equal(t, tt.wantNew, check.NewVersions)
			assert.Equal(t, tt.wantUntracked, check.Untracked)
			assert.Equal(t, tt.wantLatest, check.LatestPublished)
			assert.Equal(t, tt.wantStatus == StatusUpdateAvailable, check.UpdateAvailable())
			assert.NotEmpty(t, check.Summary())
		})
	}
}

func TestSourceRepository(t *testing.T) {
	service := NewReleaseService()

	t.Run("from URL template", func(t *testing.T) {
		repo, err := service.SourceRepository(releaseManifest("1.0.2"))
		require.NoError(t, err)
		assert.Equal(t, "OdNairy/TestBinaryDependency", repo)
	})

	t.Run("from release URL", func(t *testing.T) {
		m := releaseManifest()
		m.Binary.URLTemplate = ""
		m.Binary.Releases["2.0.0"] = entities.Release{
			Checksum: strings.Repeat("b", 64),
			URL:      "https://github.com/acme/widgets/releases/download/2.0.0/Widgets.zip",
		}
		repo, err := service.SourceRepository(m)
		require.NoError(t, err)
		assert.Equal(t, "acme/widgets", repo)
	})

	t.Run("not GitHub", func(t *testing.T) {
		m := releaseManifest("1.0.2")
		m.Binary.URLTemplate = "https://cdn.example.com/{version}/{name}.zip"
		_, err := service.SourceRepository(m)
		assert.Error(t, err, "non-GitHub hosts are rejected")
	})

	t.Run("not a release download", func(t *testing.T) {
		m := releaseManifest("1.0.2")
		m.Binary.URLTemplate = "https://github.com/OdNairy/TestBinaryDependency/archive/{version}.zip"
		_, err := service.SourceRepository(m)
		assert.Error(t, err, "non-release paths are rejected")
	})
}
