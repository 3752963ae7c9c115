package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/nao1215/wmsync/internal/metrics"
)

const (
	// DefaultMaxRetries is the number of attempts for retryable failures.
	DefaultMaxRetries = 3

	// DefaultInitialBackoff is the first retry delay; later delays double.
	DefaultInitialBackoff = 1 * time.Second

	// DefaultMaxBackoff caps a single retry delay.
	DefaultMaxBackoff = 30 * time.Second

	// maxBodySize bounds how much of a response is read into memory.
	maxBodySize = 32 << 20

	// maxErrorBody bounds the response body kept in a StatusError.
	maxErrorBody = 512
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestFunc builds a fresh request for one attempt. It is called again for
// every retry so that signed headers and request bodies are regenerated.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client sends requests with rate limiting and retries.
// It is safe for concurrent use; the limiter is shared by all callers.
type Client struct {
	name              string
	http              *http.Client
	limiter           *rate.Limiter
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	defaultRetryAfter time.Duration
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMinInterval spaces requests at least d apart. Zero disables limiting.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets the total number of attempts for retryable failures.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial and maximum retry delay.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = initial
		c.maxBackoff = maxDelay
	}
}

// WithDefaultRetryAfter sets the delay used for a 429 without a Retry-After header.
func WithDefaultRetryAfter(d time.Duration) Option {
	return func(c *Client) {
		c.defaultRetryAfter = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records requests and retries into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client. name labels log lines and metrics ("walmart", "shopify").
func New(name string, opts ...Option) *Client {
	c := &Client{
		name:           name,
		http:           &http.Client{Timeout: 30 * time.Second},
		limiter:        rate.NewLimiter(rate.Inf, 1),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the client label.
func (c *Client) Name() string {
	return c.name
}

// Do sends the request built by newReq and returns the response on 2xx.
//
// Transport errors, 429 and 5xx are retried up to the configured number of
// attempts with exponential backoff; a Retry-After header longer than the
// computed delay wins. Any other status returns a *StatusError immediately.
func (c *Client) Do(ctx context.Context, op string, newReq RequestFunc) (*Response, error) {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries-1)), //nolint:gosec // maxRetries >= 1
		ctx,
	)

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, lastErr := c.attempt(ctx, op, newReq)
		if lastErr == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var retryAfter time.Duration
		var se *StatusError
		if errors.As(lastErr, &se) {
			if !se.Retryable() {
				return nil, se
			}
			retryAfter = se.RetryAfter
			if retryAfter == 0 && se.StatusCode == http.StatusTooManyRequests {
				retryAfter = c.defaultRetryAfter
			}
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrRetriesExhausted, attempt, lastErr)
		}
		if retryAfter > wait {
			wait = retryAfter
		}

		c.metrics.ObserveRetry(c.name)
		c.logger.Warn("retrying request",
			"client", c.name,
			"operation", op,
			"attempt", attempt,
			"wait", wait,
			"error", lastErr,
		)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) attempt(ctx context.Context, op string, newReq RequestFunc) (*Response, error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(c.name, 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.ObserveRequest(c.name, resp.StatusCode)
	c.logger.Debug("http response",
		"client", c.name,
		"operation", op,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(body)), maxErrorBody),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// parseRetryAfter understands the delay-seconds form and HTTP dates.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
