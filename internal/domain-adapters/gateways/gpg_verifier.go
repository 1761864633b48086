package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ochairo/testlibrary/internal/domain/interfaces"
	"github.com/ochairo/testlibrary/internal/domain/interfaces/gateways"
	"github.com/ochairo/testlibrary/internal/external-adapters/gpg"
)

// SignatureGateway verifies artifact signatures with the OpenPGP adapter
type SignatureGateway struct {
	verifier *gpg.Verifier
	logger   interfaces.Logger
}

// NewSignatureGateway creates a gateway whose keys and remote signatures are
// downloaded with client. A nil client uses the adapter default.
func NewSignatureGateway(client *http.Client, logger interfaces.Logger) *SignatureGateway {
	verifier := gpg.NewVerifier()
	if client != nil {
		verifier = gpg.NewVerifierWithClient(client)
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SignatureGateway{verifier: verifier, logger: logger}
}

// ImportKeys loads the public keys at keys.Path and keys.URL into the keyring
func (g *SignatureGateway) ImportKeys(ctx context.Context, keys gateways.Source) error {
	before := g.verifier.GetKeyringSize()

	if keys.Path != "" {
		if err := g.verifier.ImportKeyFromFile(keys.Path); err != nil {
			return fmt.Errorf("failed to import GPG key from %s: %w", keys.Path, err)
		}
	}
	if keys.URL != "" {
		if err := g.verifier.ImportKeysFromURL(ctx, keys.URL); err != nil {
			return fmt.Errorf("failed to import GPG keys from %s: %w", keys.URL, err)
		}
	}

	if added := g.verifier.GetKeyringSize() - before; added > 0 {
		g.logger.Debug("imported GPG keys",
			interfaces.F("keys", added),
			interfaces.F("path", keys.Path),
			interfaces.F("url", keys.URL))
	}
	return nil
}

// VerifyDetached checks filePath against the detached signature at signature.Path,
// or downloads it from signature.URL when no path is given
func (g *SignatureGateway) VerifyDetached(ctx context.Context, filePath string, signature gateways.Source) error {
	var err error
	switch {
	case signature.Path != "":
		err = g.verifier.VerifySignatureFromFile(filePath, signature.Path)
	case signature.URL != "":
		err = g.verifier.VerifySignature(ctx, filePath, signature.URL)
	default:
		return errors.New("no signature given")
	}
	if err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// KeyCount returns the number of keys in the keyring
func (g *SignatureGateway) KeyCount() int {
	return g.verifier.GetKeyringSize()
}
