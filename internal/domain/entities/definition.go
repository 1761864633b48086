package entities

import "fmt"

// Manifest represents a binary package manifest.
// One manifest covers every released version of the product; each version
// only contributes a checksum (and, rarely, an explicit URL).
type Manifest struct {
	ProductName  string
	ToolsVersion string
	Platforms    []PlatformRequirement
	Library      LibraryProduct
	Binary       BinaryTarget
}

// PlatformRequirement declares a supported platform and its minimum OS version
type PlatformRequirement struct {
	Name           string // e.g., "ios", "macos"
	MinimumVersion string // e.g., "13.0"
}

// String renders the requirement as a constraint, e.g. "ios>=13.0"
func (p PlatformRequirement) String() string {
	if p.MinimumVersion == "" {
		return p.Name
	}
	return fmt.Sprintf("%s>=%s", p.Name, p.MinimumVersion)
}

// LibraryProduct is the product exported to consumers of the package
type LibraryProduct struct {
	Name    string
	Targets []string
}

// BinaryTarget points at the prebuilt artifacts for every release
type BinaryTarget struct {
	Name        string
	URLTemplate string // placeholders: {version}, {name}
	Releases    map[string]Release
}

// Release is the per-version part of a binary target
type Release struct {
	Checksum string
	URL      string // overrides URLTemplate when set
}

// Target is the build target a manifest is resolved for
type Target struct {
	Platform string
	Version  string
}

// String renders the target as "platform version"
func (t Target) String() string {
	if t.Version == "" {
		return t.Platform
	}
	return t.Platform + " " + t.Version
}

// Platform returns the requirement for the named platform
func (m *Manifest) Platform(name string) (PlatformRequirement, bool) {
	for _, p := range m.Platforms {
		if p.Name == name {
			return p, true
		}
	}
	return PlatformRequirement{}, false
}

// SupportsPlatform reports whether the manifest lists the named platform
func (m *Manifest) SupportsPlatform(name string) bool {
	_, ok := m.Platform(name)
	return ok
}

// PublishedRelease is a release announced by the upstream distribution channel
type PublishedRelease struct {
	Version    string
	Tag        string
	Prerelease bool
}
