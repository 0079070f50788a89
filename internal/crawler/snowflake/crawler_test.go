package snowflake

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DSN helpers
// ---------------------------------------------------------------------------

func TestWithPlaceholderPassword(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"password-less DSN gets the placeholder", "app@myorg-account/moviedb", "app:_@myorg-account/moviedb"},
		{"existing password is left alone", "app:secret@myorg-account/moviedb", "app:secret@myorg-account/moviedb"},
		{"DSN without user part is left alone", "myorg-account/moviedb", "myorg-account/moviedb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withPlaceholderPassword(tt.dsn); got != tt.want {
				t.Errorf("withPlaceholderPassword(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Private key loading
// ---------------------------------------------------------------------------

func writeKeyFile(t *testing.T, blockType string, der []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path
}

func TestLoadPrivateKey(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	t.Run("pkcs1", func(t *testing.T) {
		path := writeKeyFile(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(rsaKey))
		got, err := loadPrivateKey(path)
		if err != nil {
			t.Fatalf("loadPrivateKey: %v", err)
		}
		if !got.Equal(rsaKey) {
			t.Error("loaded key does not match the original")
		}
	})

	t.Run("pkcs8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(rsaKey)
		if err != nil {
			t.Fatalf("marshal pkcs8: %v", err)
		}
		path := writeKeyFile(t, "PRIVATE KEY", der)
		got, err := loadPrivateKey(path)
		if err != nil {
			t.Fatalf("loadPrivateKey: %v", err)
		}
		if !got.Equal(rsaKey) {
			t.Error("loaded key does not match the original")
		}
	})

	t.Run("unsupported block type", func(t *testing.T) {
		path := writeKeyFile(t, "CERTIFICATE", []byte("not a key"))
		if _, err := loadPrivateKey(path); err == nil || !strings.Contains(err.Error(), "unsupported PEM block type") {
			t.Errorf("err = %v, want unsupported PEM block type", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadPrivateKey(filepath.Join(t.TempDir(), "absent.pem")); err == nil {
			t.Error("expected an error for a missing key file")
		}
	})
}
