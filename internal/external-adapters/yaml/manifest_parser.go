// Package yaml provides YAML-based manifest parsing and repository implementations.
package yaml

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yml
var defaultManifests embed.FS

// DefaultManifestName is the product shipped with the binary
const DefaultManifestName = "TestLibrary"

// yamlManifest represents the raw YAML structure
type yamlManifest struct {
	Name         string           `yaml:"name"`
	ToolsVersion string           `yaml:"tools_version"`
	Platforms    []yamlPlatform   `yaml:"platforms"`
	Products     yamlProducts     `yaml:"products"`
	BinaryTarget yamlBinaryTarget `yaml:"binary_target"`
}

type yamlPlatform struct {
	Name           string `yaml:"name"`
	MinimumVersion string `yaml:"minimum_version"`
}

type yamlProducts struct {
	Library yamlLibrary `yaml:"library"`
}

type yamlLibrary struct {
	Name    string   `yaml:"name"`
	Targets []string `yaml:"targets"`
}

type yamlBinaryTarget struct {
	Name     string                 `yaml:"name"`
	URL      string                 `yaml:"url"`
	Releases map[string]yamlRelease `yaml:"releases"`
}

type yamlRelease struct {
	Checksum string `yaml:"checksum"`
	URL      string `yaml:"url"`
}

// ManifestParser parses YAML manifest files
type ManifestParser struct{}

// NewManifestParser creates a new YAML parser
func NewManifestParser() *ManifestParser {
	return &ManifestParser{}
}

// ParseFile parses a YAML manifest file into a Manifest entity
func (p *ManifestParser) ParseFile(filePath string) (*entities.Manifest, error) {
	//nolint:gosec // G304: filePath is manifest path from repository or flag
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a Manifest entity
func (p *ManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	var ym yamlManifest
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if ym.Name == "" {
		return nil, fmt.Errorf("manifest must have a name")
	}
	if len(ym.Platforms) == 0 {
		return nil, fmt.Errorf("manifest %s must declare at least one platform", ym.Name)
	}
	for i, pl := range ym.Platforms {
		if pl.Name == "" {
			return nil, fmt.Errorf("manifest %s: platform %d has no name", ym.Name, i)
		}
	}
	if ym.BinaryTarget.URL == "" && !allReleasesHaveURL(ym.BinaryTarget.Releases) {
		return nil, fmt.Errorf("manifest %s: binary_target.url is required", ym.Name)
	}
	if len(ym.BinaryTarget.Releases) == 0 {
		return nil, fmt.Errorf("manifest %s must declare at least one release", ym.Name)
	}

	// Convert to domain entity
	m := &entities.Manifest{
		ProductName:  ym.Name,
		ToolsVersion: ym.ToolsVersion,
		Platforms:    convertPlatforms(ym.Platforms),
		Library:      convertLibrary(ym.Name, ym.Products.Library),
		Binary:       convertBinaryTarget(ym.Name, ym.BinaryTarget),
	}

	return m, nil
}

// DefaultManifest returns the embedded TestLibrary manifest
func DefaultManifest() (*entities.Manifest, error) {
	data, err := defaultManifests.ReadFile("defaults/" + DefaultManifestName + ".yml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded manifest: %w", err)
	}
	return NewManifestParser().Parse(data)
}

func allReleasesHaveURL(releases map[string]yamlRelease) bool {
	if len(releases) == 0 {
		return false
	}
	for _, r := range releases {
		if r.URL == "" {
			return false
		}
	}
	return true
}

func convertPlatforms(yp []yamlPlatform) []entities.PlatformRequirement {
	platforms := make([]entities.PlatformRequirement, 0, len(yp))
	for _, p := range yp {
		platforms = append(platforms, entities.PlatformRequirement{
			Name:           strings.ToLower(p.Name),
			MinimumVersion: p.MinimumVersion,
		})
	}
	return platforms
}

func convertLibrary(product string, yl yamlLibrary) entities.LibraryProduct {
	lib := entities.LibraryProduct{Name: yl.Name, Targets: yl.Targets}
	if lib.Name == "" {
		lib.Name = product
	}
	if len(lib.Targets) == 0 {
		lib.Targets = []string{product}
	}
	return lib
}

func convertBinaryTarget(product string, yb yamlBinaryTarget) entities.BinaryTarget {
	releases := make(map[string]entities.Release, len(yb.Releases))
	for version, r := range yb.Releases {
		releases[version] = entities.Release{
			Checksum: strings.TrimSpace(r.Checksum),
			URL:      r.URL,
		}
	}

	name := yb.Name
	if name == "" {
		name = product
	}

	return entities.BinaryTarget{
		Name:        name,
		URLTemplate: yb.URL,
		Releases:    releases,
	}
}
