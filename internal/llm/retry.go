package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls the rate-limit retry loop.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// NewBackOff overrides the exponential schedule; tests use ZeroBackOff.
	NewBackOff func() backoff.BackOff
	// Logger receives the backoff notices. nil means slog.Default().
	Logger *slog.Logger
}

func (c RetryConfig) backOff() backoff.BackOff {
	if c.NewBackOff != nil {
		return c.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BaseDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.MaxInterval = c.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 10 * time.Second
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0.1
	return b
}

// Retry retries Complete only when the provider reports a rate limit. Any
// other failure is returned immediately. After MaxAttempts rate-limited
// calls the error wraps both ErrRetryExhausted and the last failure.
func Retry(cfg RetryConfig) Middleware {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next Client) Client {
		return &retrying{next: next, cfg: cfg}
	}
}

type retrying struct {
	next Client
	cfg  RetryConfig
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := 0
	out, err := backoff.Retry(ctx, func() (string, error) {
		attempts++
		s, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return s, nil
		}
		if !IsRateLimited(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	},
		backoff.WithBackOff(r.cfg.backOff()),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.cfg.Logger.WarnContext(ctx, "llm rate limited, backing off",
				"stage", StageFrom(ctx),
				"attempt", attempts,
				"wait", wait,
				"error", err)
		}),
	)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return "", err
	}
	if IsRateLimited(err) {
		return "", fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, err)
	}
	return "", err
}
