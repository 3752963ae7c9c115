package walmart

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header names used by the affiliate API authentication scheme.
const (
	HeaderServiceName   = "WM_SVC.NAME"
	HeaderCorrelationID = "WM_QOS.CORRELATION_ID"
	HeaderConsumerID    = "WM_CONSUMER.ID"
	HeaderTimestamp     = "WM_CONSUMER.INTIMESTAMP"
	HeaderKeyVersion    = "WM_SEC.KEY_VERSION"
	HeaderSignature     = "WM_SEC.AUTH_SIGNATURE"

	serviceName = "Walmart Open API"
)

// Signer produces the WM_SEC.AUTH_SIGNATURE header set for a consumer.
type Signer struct {
	ConsumerID string
	KeyVersion string
	Key        *rsa.PrivateKey

	// Now returns the signing time. It defaults to time.Now.
	Now func() time.Time
}

// NewSigner returns a Signer for the given consumer and key.
func NewSigner(consumerID, keyVersion string, key *rsa.PrivateKey) (*Signer, error) {
	if strings.TrimSpace(consumerID) == "" {
		return nil, ErrMissingConsumerID
	}
	if key == nil {
		return nil, ErrNoPrivateKey
	}
	if keyVersion == "" {
		keyVersion = "1"
	}
	return &Signer{ConsumerID: consumerID, KeyVersion: keyVersion, Key: key}, nil
}

// canonical builds the string to sign. The values are ordered by their header
// names (WM_CONSUMER.ID, WM_CONSUMER.INTIMESTAMP, WM_SEC.KEY_VERSION) and each
// is terminated by a newline.
func (s *Signer) canonical(timestamp string) string {
	var b strings.Builder
	for _, v := range []string{s.ConsumerID, timestamp, s.KeyVersion} {
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String()
}

// Sign returns the base64 encoded RSA PKCS#1 v1.5 SHA-256 signature for timestamp.
func (s *Signer) Sign(timestamp string) (string, error) {
	digest := sha256.Sum256([]byte(s.canonical(timestamp)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.Key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Headers returns a freshly signed header set. Call it once per attempt:
// Walmart rejects stale timestamps.
func (s *Signer) Headers() (http.Header, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := strconv.FormatInt(now().UnixMilli(), 10)

	sig, err := s.Sign(ts)
	if err != nil {
		return nil, err
	}

	h := make(http.Header, 8)
	// The WM_* names are not canonical MIME keys; set them verbatim.
	h[HeaderServiceName] = []string{serviceName}
	h[HeaderCorrelationID] = []string{uuid.NewString()}
	h[HeaderConsumerID] = []string{s.ConsumerID}
	h[HeaderTimestamp] = []string{ts}
	h[HeaderKeyVersion] = []string{s.KeyVersion}
	h[HeaderSignature] = []string{sig}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	return h, nil
}

// Apply signs req in place.
func (s *Signer) Apply(req *http.Request) error {
	h, err := s.Headers()
	if err != nil {
		return err
	}
	for k, v := range h {
		req.Header[k] = v
	}
	return nil
}

// Verify checks sig against the canonical string for timestamp using the
// signer's public key.
func (s *Signer) Verify(timestamp, sig string) error {
	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	digest := sha256.Sum256([]byte(s.canonical(timestamp)))
	return rsa.VerifyPKCS1v15(&s.Key.PublicKey, crypto.SHA256, digest[:], raw)
}

// SelfCheck signs a fresh header set and verifies it, so a broken key is
// reported before Walmart answers with a bare 401.
func (s *Signer) SelfCheck() error {
	h, err := s.Headers()
	if err != nil {
		return err
	}
	if err := s.Verify(h[HeaderTimestamp][0], h[HeaderSignature][0]); err != nil {
		return fmt.Errorf("signature does not verify with the key's public half: %w", err)
	}
	return nil
}
