package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
)

// maxArtifactSize caps a single download (2GB) to guard against runaway responses
const maxArtifactSize = 2 << 30

// Downloader handles downloading artifacts from URLs
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(logger interfaces.Logger) *Downloader {
	return NewDownloaderWithClient(&http.Client{
		Timeout: 5 * time.Minute, // Long timeout for large downloads
	}, logger)
}

// NewDownloaderWithClient creates a downloader using client for every request
func NewDownloaderWithClient(client *http.Client, logger interfaces.Logger) *Downloader {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Downloader{
		httpClient: client,
		userAgent:  "testlibrary/1.0",
		logger:     logger,
	}
}

// DownloadArtifact downloads the artifact a descriptor points at into outputDir.
// The file is written under a temporary name and renamed once complete.
func (d *Downloader) DownloadArtifact(ctx context.Context, descriptor entities.ArtifactDescriptor, outputDir string) (*entities.Artifact, error) {
	filename := descriptor.Filename()
	if filename == "" {
		return nil, fmt.Errorf("cannot derive filename from URL %s", descriptor.ArtifactURL)
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, filename)
	size, err := d.downloadFile(ctx, descriptor.ArtifactURL, outputPath)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	d.logger.Info("downloaded artifact",
		interfaces.F("product", descriptor.ProductName),
		interfaces.F("version", descriptor.Version),
		interfaces.F("path", outputPath),
		interfaces.F("bytes", size))

	return &entities.Artifact{
		Name:     descriptor.ProductName,
		Version:  descriptor.Version,
		Platform: descriptor.PlatformConstraint,
		Path:     outputPath,
		Checksum: descriptor.ContentChecksum,
		Size:     size,
	}, nil
}

// downloadFile downloads a file from URL to destination
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, maxArtifactSize))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}

	return written, nil
}

// HTTPStatusError reports a non-200 response
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}
