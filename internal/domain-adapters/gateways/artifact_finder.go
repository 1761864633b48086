package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// ArtifactFinder locates previously fetched artifacts on disk
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// Find returns the local path of the descriptor's artifact when it exists in artifactsDir
func (f *ArtifactFinder) Find(artifactsDir string, descriptor entities.ArtifactDescriptor) (string, bool) {
	filename := descriptor.Filename()
	if filename == "" {
		return "", false
	}

	path := filepath.Join(artifactsDir, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// FindByProduct lists fetched artifacts whose file name starts with productName, sorted by name.
// Hidden files (in-progress downloads) are skipped. A missing artifactsDir holds no artifacts.
func (f *ArtifactFinder) FindByProduct(artifactsDir, productName string) ([]string, error) {
	if _, err := os.Stat(artifactsDir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(artifactsDir, globEscape(productName)+"*"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob artifacts for %s: %w", productName, err)
	}

	artifacts := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			artifacts = append(artifacts, m)
		}
	}
	sort.Strings(artifacts)

	return artifacts, nil
}

func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
