package gateways

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

// maxExtractedSize caps the total uncompressed size of an archive (8GB)
const maxExtractedSize = 8 << 30

// Extractor unpacks zip artifacts such as .xcframework.zip bundles
type Extractor struct {
	maxSize int64
}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{maxSize: maxExtractedSize}
}

// ExtractArtifact unzips artifact into outputDir/<archive name without .zip>.
// The archive is unpacked into a temporary directory first, so an existing
// extraction is only replaced once the new one is complete.
func (e *Extractor) ExtractArtifact(ctx context.Context, artifact *entities.Artifact, outputDir string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(artifact.Path), ".zip")
	if name == "" || name == filepath.Base(artifact.Path) {
		return "", fmt.Errorf("not a zip archive: %s", artifact.Path)
	}

	reader, err := zip.OpenReader(artifact.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close
	defer reader.Close()

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp(outputDir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}

	if err := e.extractAll(ctx, reader.File, tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}

	dest := filepath.Join(outputDir, name)
	if err := os.RemoveAll(dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("failed to remove previous extraction: %w", err)
	}
	if err := os.Rename(tmpDir, dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("failed to move extraction into place: %w", err)
	}

	return dest, nil
}

func (e *Extractor) extractAll(ctx context.Context, files []*zip.File, root string) error {
	remaining := e.maxSize

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := securePath(root, f.Name)
		if err != nil {
			return err
		}
		// Entries must not be written through a symlink extracted earlier
		if !confined(root, relativeElems(root, target)) {
			return fmt.Errorf("illegal path in archive: %s", f.Name)
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case mode&os.ModeSymlink != 0:
			// Framework bundles use relative symlinks (Versions/Current)
			if err := extractSymlink(f, root, target); err != nil {
				return err
			}

		default:
			written, err := extractFile(f, target, remaining)
			if err != nil {
				return err
			}
			remaining -= written
		}
	}

	return nil
}

// securePath joins name onto root, rejecting entries that escape root
func securePath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("illegal path in archive: %s", name)
	}
	return target, nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// maxSymlinkHops bounds symlink chains followed by confined
const maxSymlinkHops = 40

// confined resolves elems against root the way the filesystem would,
// following symlinks already extracted under root, and reports whether the
// result stays inside root. Components that do not exist yet are taken literally.
func confined(root string, elems []string) bool {
	cur := root
	hops := 0
	for len(elems) > 0 {
		elem := elems[0]
		elems = elems[1:]

		switch elem {
		case "", ".":
			continue
		case "..":
			if cur == root {
				return false
			}
			cur = filepath.Dir(cur)
			continue
		}

		next := filepath.Join(cur, elem)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			cur = next
			continue
		}

		hops++
		if hops > maxSymlinkHops {
			return false
		}
		link, err := os.Readlink(next)
		if err != nil || filepath.IsAbs(link) {
			return false
		}
		elems = append(splitElems(link), elems...)
	}
	return true
}

func relativeElems(root, path string) []string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return []string{".."}
	}
	return splitElems(rel)
}

func splitElems(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}

func extractSymlink(f *zip.File, root, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close
	defer rc.Close()

	link, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", f.Name, err)
	}

	linkTarget := string(link)
	elems := append(relativeElems(root, filepath.Dir(target)), splitElems(linkTarget)...)
	if filepath.IsAbs(linkTarget) || !confined(root, elems) {
		return fmt.Errorf("illegal symlink in archive: %s -> %s", f.Name, linkTarget)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.Symlink(linkTarget, target)
}

func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close
	defer rc.Close()

	//nolint:gosec // G304: target is confined to the extraction root by securePath
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm()|0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	// Read one byte past the limit to detect oversized archives
	written, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if written > limit {
		return 0, errors.New("archive exceeds maximum extracted size")
	}

	return written, nil
}
