// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
	"github.com/ochairo/testlibrary/internal/domain/interfaces/gateways"
	"github.com/ochairo/testlibrary/internal/domain/interfaces/repositories"
	"github.com/ochairo/testlibrary/internal/domain/interfaces/services"
)

// ArtifactLocator finds artifacts fetched by an earlier run
type ArtifactLocator interface {
	Find(artifactsDir string, descriptor entities.ArtifactDescriptor) (string, bool)
}

// FetchOrchestrator coordinates resolve, download and verification of an artifact
type FetchOrchestrator struct {
	manifests repositories.ManifestRepository
	resolver  services.ManifestResolver
	locator   ArtifactLocator
	download  gateways.ArtifactDownloader
	checksums gateways.ChecksumVerifier
	signer    gateways.SignatureVerifier
	extractor gateways.ArtifactExtractor
	logger    interfaces.Logger
	outputDir string
}

// FetchOrchestratorConfig holds configuration for the orchestrator
type FetchOrchestratorConfig struct {
	OutputDir string
	Logger    interfaces.Logger
	// Extractor is required only for requests with Extract set
	Extractor gateways.ArtifactExtractor
}

// NewFetchOrchestrator creates a new fetch orchestrator.
// locator and signer may be nil; without a locator every fetch downloads.
func NewFetchOrchestrator(
	manifests repositories.ManifestRepository,
	resolver services.ManifestResolver,
	locator ArtifactLocator,
	download gateways.ArtifactDownloader,
	checksums gateways.ChecksumVerifier,
	signer gateways.SignatureVerifier,
	config FetchOrchestratorConfig,
) *FetchOrchestrator {
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "artifacts"
	}
	logger := config.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &FetchOrchestrator{
		manifests: manifests,
		resolver:  resolver,
		locator:   locator,
		download:  download,
		checksums: checksums,
		signer:    signer,
		extractor: config.Extractor,
		logger:    logger,
		outputDir: outputDir,
	}
}

// FetchRequest describes the artifact to fetch
type FetchRequest struct {
	Product       string
	Version       string // empty selects the newest release
	Target        entities.Target
	SignatureURL  string
	SignaturePath string
	// Extract unpacks the verified archive next to it
	Extract bool
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	Descriptor        entities.ArtifactDescriptor
	Artifact          *entities.Artifact
	Cached            bool
	SignatureVerified bool
	ExtractedPath     string
	DownloadDuration  time.Duration
	TotalDuration     time.Duration
}

// Fetch resolves, downloads and verifies an artifact.
// A downloaded file that fails checksum verification is removed.
func (o *FetchOrchestrator) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	startTime := time.Now()
	result := &FetchResult{}

	// Step 1: Load manifest
	manifest, err := o.manifests.GetManifest(ctx, req.Product)
	if err != nil {
		return result, fmt.Errorf("failed to load manifest: %w", err)
	}

	// Step 2: Resolve for the build target
	descriptor, err := o.resolver.Resolve(manifest, req.Version, req.Target)
	if err != nil {
		return result, err
	}
	result.Descriptor = descriptor
	o.logger.Debug("resolved artifact",
		interfaces.F("product", descriptor.ProductName),
		interfaces.F("version", descriptor.Version),
		interfaces.F("url", descriptor.ArtifactURL))

	// Step 3: Reuse a previously fetched artifact when it still verifies
	if artifact, ok := o.cached(ctx, descriptor); ok {
		result.Artifact = artifact
		result.Cached = true
	} else {
		// Step 4: Download
		downloadStart := time.Now()
		artifact, err := o.download.DownloadArtifact(ctx, descriptor, o.outputDir)
		if err != nil {
			return result, fmt.Errorf("failed to download %s: %w", descriptor.ArtifactURL, err)
		}
		result.DownloadDuration = time.Since(downloadStart)

		// Step 5: Verify checksum
		if err := o.checksums.VerifyChecksum(ctx, artifact.Path, descriptor.ContentChecksum); err != nil {
			if rmErr := os.Remove(artifact.Path); rmErr != nil && !os.IsNotExist(rmErr) {
				o.logger.Warn("failed to remove unverified artifact",
					interfaces.F("path", artifact.Path),
					interfaces.F("error", rmErr.Error()))
			}
			return result, fmt.Errorf("failed to verify %s: %w", descriptor.Filename(), err)
		}
		result.Artifact = artifact
	}

	// Step 6: Optional signature verification
	if req.SignatureURL != "" || req.SignaturePath != "" {
		if err := o.verifySignature(ctx, result.Artifact.Path, req); err != nil {
			return result, err
		}
		result.SignatureVerified = true
	}

	// Step 7: Optional extraction, only of verified artifacts
	if req.Extract {
		if o.extractor == nil {
			return result, errors.New("extraction requested but no extractor is configured")
		}
		dir, err := o.extractor.ExtractArtifact(ctx, result.Artifact, o.outputDir)
		if err != nil {
			return result, fmt.Errorf("failed to extract %s: %w", result.Artifact.Path, err)
		}
		result.ExtractedPath = dir
	}

	result.TotalDuration = time.Since(startTime)
	o.logger.Info("artifact ready",
		interfaces.F("path", result.Artifact.Path),
		interfaces.F("cached", result.Cached),
		interfaces.F("signature_verified", result.SignatureVerified),
		interfaces.F("duration", result.TotalDuration.String()))

	return result, nil
}

func (o *FetchOrchestrator) cached(ctx context.Context, descriptor entities.ArtifactDescriptor) (*entities.Artifact, bool) {
	if o.locator == nil {
		return nil, false
	}

	path, ok := o.locator.Find(o.outputDir, descriptor)
	if !ok {
		return nil, false
	}

	if err := o.checksums.VerifyChecksum(ctx, path, descriptor.ContentChecksum); err != nil {
		o.logger.Warn("cached artifact failed verification, fetching again",
			interfaces.F("path", path),
			interfaces.F("error", err.Error()))
		return nil, false
	}

	artifact := &entities.Artifact{
		Name:     descriptor.ProductName,
		Version:  descriptor.Version,
		Platform: descriptor.PlatformConstraint,
		Path:     path,
		Checksum: descriptor.ContentChecksum,
	}
	if info, err := os.Stat(path); err == nil {
		artifact.Size = info.Size()
	}
	return artifact, true
}

func (o *FetchOrchestrator) verifySignature(ctx context.Context, path string, req FetchRequest) error {
	if o.signer == nil || o.signer.KeyCount() == 0 {
		return errors.New("signature verification requested but no GPG keys are loaded")
	}

	return o.signer.VerifyDetached(ctx, path, gateways.Source{
		Path: req.SignaturePath,
		URL:  req.SignatureURL,
	})
}
