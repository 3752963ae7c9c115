package httpclient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRetriesExhausted is returned when every attempt failed with a retryable error.
	// The last failure is wrapped alongside it.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	// Operation names the API call, e.g. "walmart items by ids".
	Operation string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the response body, truncated to maxErrorBody bytes.
	Body string

	// RetryAfter is the server-provided delay, or zero when absent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return retryableStatus(e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
