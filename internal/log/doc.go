// Package log provides slog loggers that mask credentials before they are
// written.
//
// wmsync handles three kinds of secrets: the Walmart RSA private key, the
// per-request WM_SEC.AUTH_SIGNATURE header, and the Shopify Admin API access
// token. SecureHandler masks them when they show up as:
//   - attributes with sensitive names (access_token, signature, authorization)
//   - values with a recognizable shape (shpat_ tokens, PEM private keys,
//     long base64 blobs)
//   - entries of an http.Header logged as a single attribute
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	slog.Debug("walmart request", "headers", req.Header) // signature masked
package log
