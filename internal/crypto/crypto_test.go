package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestSealOpenRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	sealed, err := enc.Seal("sk-secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !IsSealed(sealed) || strings.Contains(sealed, "sk-secret") {
		t.Fatalf("expected sealed value, got %q", sealed)
	}

	again, err := enc.Seal(sealed)
	if err != nil || again != sealed {
		t.Errorf("sealing twice should be a no-op, got %q, %v", again, err)
	}

	plain, err := enc.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "sk-secret" {
		t.Errorf("expected sk-secret, got %q", plain)
	}
}

func TestOpenLegacyPlaintext(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	plain, err := enc.Open("app-password")
	if err != nil || plain != "app-password" {
		t.Errorf("expected passthrough, got %q, %v", plain, err)
	}
}

func TestNewEncryptorRejectsBadKeys(t *testing.T) {
	if _, err := NewEncryptor(""); err == nil {
		t.Error("expected error for empty key")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := NewEncryptor(short); err == nil {
		t.Error("expected error for short key")
	}
}
