package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// TransportOptions configures NewHTTPClient.
type TransportOptions struct {
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration

	// Proxy is an optional SOCKS5 proxy address in host:port form.
	Proxy string

	// Headers are set on every request that does not already carry them.
	Headers map[string]string
}

// NewHTTPClient builds an *http.Client for API traffic, optionally routed
// through a SOCKS5 proxy and with static headers injected.
func NewHTTPClient(opts TransportOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib guarantees the type
	transport.MaxIdleConnsPerHost = 16

	if opts.Proxy != "" {
		if !isValidProxyAddress(opts.Proxy) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.Proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
	}

	var rt http.RoundTripper = transport
	if len(opts.Headers) > 0 {
		rt = &headerInjectingTransport{base: transport, headers: opts.Headers}
	}

	return &http.Client{Transport: rt, Timeout: opts.Timeout}, nil
}

// contextDialer adapts a proxy.Dialer to DialContext. The SOCKS5 dialer from
// x/net implements proxy.ContextDialer, so cancellation reaches the dial.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// headerInjectingTransport sets static headers on every outgoing request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		if clone.Header.Get(k) == "" {
			clone.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(clone)
}
