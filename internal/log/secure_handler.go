package log

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// sensitiveKeys contains attribute keys (lower-cased) that are always masked.
var sensitiveKeys = map[string]bool{
	// Shopify
	"x-shopify-access-token": true,
	"access_token":           true,
	"accesstoken":            true,

	// Walmart signed headers
	"wm_sec.auth_signature": true,
	"signature":             true,

	// Generic HTTP credentials
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,

	// Key material
	"key":         true,
	"apikey":      true,
	"private_key": true,
	"privatekey":  true,
	"password":    true,
	"secret":      true,
	"token":       true,

	// A key path is safe to log even though it matches "private_key".
	"private_key_path": false,
}

// sensitiveKeywords mark a key as sensitive when they appear anywhere in it.
var sensitiveKeywords = []string{
	"password", "secret", "token", "signature", "credential", "private_key", "privatekey",
}

// sensitiveSuffixes mark keys such as "api_key" or "consumer-key". A bare
// "key" substring would also match "keyword" and "key_version".
var sensitiveSuffixes = []string{"_key", "-key", ".key"}

// sensitivePatterns match values that are masked regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// Shopify Admin API access tokens and app secrets
	regexp.MustCompile(`^shp(at|ca|pa|ss)_[A-Za-z0-9]{16,}$`),

	// Bearer and basic credentials
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Base64 blobs the size of an RSA-2048 signature or a DER key
	regexp.MustCompile(`^[A-Za-z0-9+/]{300,}={0,2}$`),

	// PEM private keys
	regexp.MustCompile(`(?i)-----BEGIN.*PRIVATE KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks credentials before records
// reach the underlying handler. Attributes are checked by key name and by
// value pattern; http.Header values are expanded and masked per header.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the sanitized attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(out)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		if hdr, ok := a.Value.Any().(http.Header); ok {
			return slog.Attr{Key: a.Key, Value: headerValue(hdr)}
		}
	}

	return a
}

// headerValue renders an http.Header as a group with one attribute per
// header, in sorted order, masking sensitive headers.
func headerValue(hdr http.Header) slog.Value {
	names := make([]string, 0, len(hdr))
	for name := range hdr {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, sanitizeAttr(slog.String(name, strings.Join(hdr[name], ", "))))
	}
	return slog.GroupValue(attrs...)
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitive, listed := sensitiveKeys[lower]; listed {
		return sensitive
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a text slog.Logger that masks credentials.
// verbose selects Debug level; otherwise only warnings and errors are emitted.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
