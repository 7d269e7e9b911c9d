package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const pemBlockType = "EC PRIVATE KEY"

// LoadECDSAPrivateKey loads a PEM encoded P-256 private key from keyPath.
func LoadECDSAPrivateKey(keyPath string) (*ecdsa.PrivateKey, error) {
	if _, err := os.Stat(keyPath); err != nil {
		return nil, fmt.Errorf("private key path does not exist: %w", err)
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ECDSA private key: %w", err)
	}
	if privateKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("ES256 requires a P-256 key, got %s", privateKey.Curve.Params().Name)
	}

	return privateKey, nil
}

// LoadOrCreateECDSAPrivateKey loads the key at keyPath, generating and
// writing a new one (mode 0600) when the file does not exist yet.
func LoadOrCreateECDSAPrivateKey(keyPath string) (*ecdsa.PrivateKey, error) {
	_, err := os.Stat(keyPath)
	if err == nil {
		return LoadECDSAPrivateKey(keyPath)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat private key: %w", err)
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA private key: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}

	if dir := filepath.Dir(keyPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	data := pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})
	if err := os.WriteFile(keyPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}

	return privateKey, nil
}
