package walmart

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// DefaultKeyBits is the RSA key size generated by GenerateKeyPair.
const DefaultKeyBits = 2048

// LoadPrivateKey resolves the signing key. A base64 DER key (encoded) wins
// over a PEM file at path. With neither, ErrNoPrivateKey is returned.
func LoadPrivateKey(encoded, path string) (*rsa.PrivateKey, error) {
	if s := strings.TrimSpace(encoded); s != "" {
		der, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode WALMART_PRIVATE_KEY: %w", err)
		}
		return ParsePrivateKeyDER(der)
	}
	if path == "" {
		return nil, ErrNoPrivateKey
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's environment
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoPrivateKey, path)
		}
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return ParsePrivateKeyPEM(data)
}

// ParsePrivateKeyPEM parses the first PEM block in data as a PKCS#8 or PKCS#1 RSA key.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidPrivateKey)
	}
	return ParsePrivateKeyDER(block.Bytes)
}

// ParsePrivateKeyDER parses a PKCS#8 or PKCS#1 RSA key.
func ParsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrInvalidPrivateKey, key)
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

// KeyPair is a generated signing key in the formats the Walmart portal and
// wmsync expect.
type KeyPair struct {
	Key *rsa.PrivateKey

	// PrivatePEM is the PKCS#8 private key.
	PrivatePEM []byte

	// PublicPEM is the PKIX public key to upload to the portal.
	PublicPEM []byte

	// PublicBase64 is the base64 DER public key, the form the portal displays.
	PublicBase64 string

	// Fingerprint is the SHA256 fingerprint of the public key.
	Fingerprint string
}

// GenerateKeyPair creates a new RSA key of the given size (DefaultKeyBits when zero).
func GenerateKeyPair(bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = DefaultKeyBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %w", err)
	}
	return NewKeyPair(key)
}

// NewKeyPair encodes an existing key.
func NewKeyPair(key *rsa.PrivateKey) (*KeyPair, error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	fp, err := Fingerprint(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Key:          key,
		PrivatePEM:   pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		PublicPEM:    pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
		PublicBase64: base64.StdEncoding.EncodeToString(pubDER),
		Fingerprint:  fp,
	}, nil
}

// Fingerprint returns the OpenSSH style SHA256 fingerprint of pub.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("fingerprint public key: %w", err)
	}
	return ssh.FingerprintSHA256(sshPub), nil
}

// PublicKeyPEMFromBase64DER converts the base64 DER public key shown by the
// Walmart developer portal into a PEM block.
func PublicKeyPEMFromBase64DER(encoded string) ([]byte, *rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(encoded), ""))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("%w: got %T", ErrInvalidPublicKey, key)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), rsaKey, nil
}
