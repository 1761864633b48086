package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
)

// ManifestRepository implements repositories.ManifestRepository using YAML files.
// An empty manifestsDir serves only the embedded default manifest.
type ManifestRepository struct {
	manifestsDir string
	parser       *ManifestParser
	logger       interfaces.Logger
}

// NewManifestRepository creates a new YAML-based manifest repository
func NewManifestRepository(manifestsDir string, logger interfaces.Logger) *ManifestRepository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ManifestRepository{
		manifestsDir: manifestsDir,
		parser:       NewManifestParser(),
		logger:       logger,
	}
}

// GetManifest retrieves a package manifest by product name
func (r *ManifestRepository) GetManifest(_ context.Context, name string) (*entities.Manifest, error) {
	if r.manifestsDir == "" {
		if name != DefaultManifestName {
			return nil, fmt.Errorf("%w: %s", entities.ErrManifestNotFound, name)
		}
		return DefaultManifest()
	}

	filePath, ok := r.manifestPath(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrManifestNotFound, name)
	}

	return r.parser.ParseFile(filePath)
}

// ListManifests returns all available package manifests
func (r *ManifestRepository) ListManifests(_ context.Context) ([]*entities.Manifest, error) {
	if r.manifestsDir == "" {
		m, err := DefaultManifest()
		if err != nil {
			return nil, err
		}
		return []*entities.Manifest{m}, nil
	}

	entries, err := os.ReadDir(r.manifestsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests directory: %w", err)
	}

	manifests := make([]*entities.Manifest, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		filePath := filepath.Join(r.manifestsDir, entry.Name())
		m, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			r.logger.Warn("skipping unparseable manifest",
				interfaces.F("file", entry.Name()),
				interfaces.F("error", err.Error()))
			continue
		}

		manifests = append(manifests, m)
	}

	return manifests, nil
}

// GetManifestsByPlatform returns manifests that support a specific platform
func (r *ManifestRepository) GetManifestsByPlatform(ctx context.Context, platform string) ([]*entities.Manifest, error) {
	all, err := r.ListManifests(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Manifest, 0)
	for _, m := range all {
		if m.SupportsPlatform(strings.ToLower(platform)) {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

// manifestPath locates <name>.yml or <name>.yaml directly inside manifestsDir.
// Names that are not a single path element never match.
func (r *ManifestRepository) manifestPath(name string) (string, bool) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	for _, ext := range []string{".yml", ".yaml"} {
		filePath := filepath.Join(r.manifestsDir, name+ext)
		if _, err := os.Stat(filePath); err == nil {
			return filePath, true
		}
	}
	return "", false
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
