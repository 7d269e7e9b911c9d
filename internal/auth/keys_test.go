package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadECDSAPrivateKey(t *testing.T) {
	tests := []struct {
		name    string
		keyPath string
		wantErr bool
	}{
		{
			name:    "load valid key",
			keyPath: "test_valid_private.pem",
			wantErr: false,
		},
		{
			name:    "load invalid key",
			keyPath: "test_invalid_private.pem",
			wantErr: true,
		},
		{
			name:    "reject non P-256 key",
			keyPath: "test_p384_private.pem",
			wantErr: true,
		},
		{
			name:    "file does not exist",
			keyPath: "non_existent_key.pem",
			wantErr: true,
		},
		{
			name:    "empty key path",
			keyPath: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadECDSAPrivateKey(tt.keyPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadECDSAPrivateKey() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				checkECDSAPrivateKey(t, got)
			}
		})
	}
}

func TestLoadOrCreateECDSAPrivateKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "keys", "session_key.pem")

	created, err := LoadOrCreateECDSAPrivateKey(keyPath)
	if err != nil {
		t.Fatalf("LoadOrCreateECDSAPrivateKey() error = %v", err)
	}
	checkECDSAPrivateKey(t, created)

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file was not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}

	loaded, err := LoadOrCreateECDSAPrivateKey(keyPath)
	if err != nil {
		t.Fatalf("second LoadOrCreateECDSAPrivateKey() error = %v", err)
	}
	if !loaded.Equal(created) {
		t.Error("second call generated a new key instead of loading the existing one")
	}
}

func checkECDSAPrivateKey(t *testing.T, key *ecdsa.PrivateKey) {
	t.Helper()
	if key == nil {
		t.Error("Expected non-nil key")
		return
	}
	if key.Curve != elliptic.P256() {
		t.Errorf("Expected P256 curve")
	}
	hash := sha256.Sum256([]byte("test message"))
	r, s, err := ecdsa.Sign(rand.Reader, key, hash[:])
	if err != nil {
		t.Errorf("Failed to sign with loaded key: %v", err)
	}
	if !ecdsa.Verify(&key.PublicKey, hash[:], r, s) {
		t.Error("Failed to verify signature with loaded key")
	}
}
