// Package httpclient is the HTTP plumbing shared by the Walmart and Shopify
// clients: request pacing with a token bucket, retries with exponential
// backoff that honor Retry-After, a typed StatusError, and an optional
// SOCKS5 proxy transport.
package httpclient
