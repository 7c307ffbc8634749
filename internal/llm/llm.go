package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Client is the single capability the pipeline needs from a model provider:
// send a prompt, get text back. Retries, rate limiting and logging are added
// with Middleware.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}

var (
	// ErrRateLimited marks a transient provider rejection (HTTP 429).
	ErrRateLimited = errors.New("llm rate limited")
	// ErrRetryExhausted is returned once the retry cap is hit on rate limits.
	ErrRetryExhausted = errors.New("llm retry limit exceeded")
)

// HTTPError is a non-success response from a provider. A 429 matches
// ErrRateLimited with errors.Is.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 300))
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err is a transient rate-limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
