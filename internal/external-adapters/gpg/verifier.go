// Package gpg provides OpenPGP detached signature verification for fetched artifacts.
package gpg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

	maxKeysSize      = 10 * 1024 * 1024
	maxSignatureSize = 10 * 1024
)

// Verifier checks detached signatures against an in-memory keyring.
// It uses ProtonMail's go-crypto, a maintained fork of golang.org/x/crypto/openpgp.
type Verifier struct {
	mu         sync.RWMutex
	keyring    openpgp.EntityList
	httpClient *http.Client
}

// NewVerifier creates a new GPG verifier
func NewVerifier() *Verifier {
	return NewVerifierWithClient(&http.Client{Timeout: 30 * time.Second})
}

// NewVerifierWithClient creates a verifier that downloads keys and signatures with client
func NewVerifierWithClient(client *http.Client) *Verifier {
	return &Verifier{
		keyring:    make(openpgp.EntityList, 0),
		httpClient: client,
	}
}

// ImportKeysFromURL imports all armored keys from a KEYS file URL
func (v *Verifier) ImportKeysFromURL(ctx context.Context, keysURL string) error {
	body, err := v.get(ctx, keysURL, maxKeysSize)
	if err != nil {
		return fmt.Errorf("failed to download KEYS file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse KEYS file: %w", err)
	}

	return v.addKeys(entities)
}

// ImportKeyFromFile imports an armored or binary public key from a file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	return v.addKeys(entities)
}

// VerifySignature verifies filePath against a detached signature downloaded from sigURL
func (v *Verifier) VerifySignature(ctx context.Context, filePath, sigURL string) error {
	sig, err := v.get(ctx, sigURL, maxSignatureSize)
	if err != nil {
		return fmt.Errorf("failed to download signature: %w", err)
	}

	//nolint:gosec // G304: filePath is the artifact being verified
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return v.Verify(f, bytes.NewReader(sig))
}

// VerifySignatureFromFile verifies filePath against a detached signature on disk
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer sigFile.Close()

	//nolint:gosec // G304: filePath is the artifact being verified
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer dataFile.Close()

	return v.Verify(dataFile, sigFile)
}

// Verify checks signed against an armored or binary detached signature
func (v *Verifier) Verify(signed, signature io.Reader) error {
	v.mu.RLock()
	keyring := v.keyring
	v.mu.RUnlock()

	if len(keyring) == 0 {
		return fmt.Errorf("no GPG keys imported, import a key first")
	}

	br := bufio.NewReader(signature)
	peek, _ := br.Peek(len(armoredSignaturePrefix))

	var err error
	if string(peek) == armoredSignaturePrefix {
		_, err = openpgp.CheckArmoredDetachedSignature(keyring, signed, br, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(keyring, signed, br, nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keyring = make(openpgp.EntityList, 0)
}

func (v *Verifier) addKeys(entities openpgp.EntityList) error {
	if len(entities) == 0 {
		return fmt.Errorf("no keys found")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Copy so that readers holding the previous slice never observe the append.
	keyring := make(openpgp.EntityList, 0, len(v.keyring)+len(entities))
	keyring = append(keyring, v.keyring...)
	v.keyring = append(keyring, entities...)
	return nil
}

func (v *Verifier) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
