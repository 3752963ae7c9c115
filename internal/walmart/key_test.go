package walmart

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// portalPublicKey is a base64 DER public key in the form the Walmart portal shows.
const portalPublicKey = "MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA0PXJ1Uel3jjxG5Zg0lfRypu4qtqGohEYlQ9J1ddLrWpPnC49OGE1QppTFxVWuPxR46nF7414RWwzwztMzLtMyrCGJ7DEYiOO1gHIoucf2ky7Xa+vcxA7gOcPqEIe++zho+GgD5x+VhYT33HbePKymK3+6f+KmW3wg6WADebOUkCrESVFefVltGQsRJnXU2MmuJfZ1nUjsdvljQ3yrDicsKBz0bviKHb9NOYpMaS3q8kaCn3iRo9AyT3m1e9HYqX5VqHjsGuaJadyijk9wPr+cigLGY8N8U9f+Ohk+ZsM8M7P6qTQDPKzK1+VPwtgQOrgZyckt5T6z1aQFeU9xmZ/AwIDAQAB"

func TestLoadPrivateKey(t *testing.T) {
	t.Parallel()

	key := testKey()
	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pkcs1 := x509.MarshalPKCS1PrivateKey(key)

	t.Run("base64 DER PKCS8", func(t *testing.T) {
		t.Parallel()
		got, err := LoadPrivateKey(base64.StdEncoding.EncodeToString(pkcs8), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(key) {
			t.Error("loaded key does not match")
		}
	})

	t.Run("base64 DER PKCS1", func(t *testing.T) {
		t.Parallel()
		got, err := LoadPrivateKey(base64.StdEncoding.EncodeToString(pkcs1), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(key) {
			t.Error("loaded key does not match")
		}
	})

	t.Run("PEM file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "key.pem")
		data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: pkcs1})
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		got, err := LoadPrivateKey("", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(key) {
			t.Error("loaded key does not match")
		}
	})

	t.Run("base64 key wins over path", func(t *testing.T) {
		t.Parallel()
		got, err := LoadPrivateKey(base64.StdEncoding.EncodeToString(pkcs8), "/nonexistent/key.pem")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(key) {
			t.Error("loaded key does not match")
		}
	})

	t.Run("no key configured", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadPrivateKey("", ""); !errors.Is(err, ErrNoPrivateKey) {
			t.Errorf("expected ErrNoPrivateKey, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPrivateKey("", filepath.Join(t.TempDir(), "absent.pem"))
		if !errors.Is(err, ErrNoPrivateKey) {
			t.Errorf("expected ErrNoPrivateKey, got %v", err)
		}
	})

	t.Run("file without PEM block", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "key.pem")
		if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPrivateKey("", path); !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})

	t.Run("garbage DER", func(t *testing.T) {
		t.Parallel()
		_, err := LoadPrivateKey(base64.StdEncoding.EncodeToString([]byte("garbage")), "")
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})
}

func TestNewKeyPair(t *testing.T) {
	t.Parallel()

	kp, err := NewKeyPair(testKey())
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if !strings.HasPrefix(kp.Fingerprint, "SHA256:") {
		t.Errorf("unexpected fingerprint %q", kp.Fingerprint)
	}

	parsed, err := ParsePrivateKeyPEM(kp.PrivatePEM)
	if err != nil {
		t.Fatalf("private PEM does not parse: %v", err)
	}
	if !parsed.Equal(testKey()) {
		t.Error("private PEM does not round trip")
	}

	pemBytes, pub, err := PublicKeyPEMFromBase64DER(kp.PublicBase64)
	if err != nil {
		t.Fatalf("public base64 does not parse: %v", err)
	}
	if string(pemBytes) != string(kp.PublicPEM) {
		t.Error("public PEM differs from the converted base64 key")
	}
	if !pub.Equal(&testKey().PublicKey) {
		t.Error("public key does not match")
	}
}

func TestPublicKeyPEMFromBase64DER(t *testing.T) {
	t.Parallel()

	t.Run("portal key", func(t *testing.T) {
		t.Parallel()
		pemBytes, pub, err := PublicKeyPEMFromBase64DER(portalPublicKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(string(pemBytes), "-----BEGIN PUBLIC KEY-----") {
			t.Errorf("unexpected PEM %q", pemBytes)
		}
		if pub.N.BitLen() != 2048 {
			t.Errorf("expected a 2048 bit key, got %d", pub.N.BitLen())
		}
	})

	t.Run("tolerates wrapped input", func(t *testing.T) {
		t.Parallel()
		wrapped := portalPublicKey[:64] + "\n" + portalPublicKey[64:]
		if _, _, err := PublicKeyPEMFromBase64DER(wrapped); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()
		if _, _, err := PublicKeyPEMFromBase64DER("not base64!"); !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("expected ErrInvalidPublicKey, got %v", err)
		}
	})
}
