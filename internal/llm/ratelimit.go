package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter builds a token bucket allowing rpm requests per minute with the
// given burst. It returns nil when rpm <= 0, which disables limiting.
func NewLimiter(rpm float64, burst int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/rpm)), burst)
}

// RateLimit makes every call take a token from lim before reaching the
// provider. Share one limiter across clients to bound the process-wide rate.
func RateLimit(lim *rate.Limiter) Middleware {
	return func(next Client) Client {
		if lim == nil {
			return next
		}
		return &rateLimited{next: next, lim: lim}
	}
}

type rateLimited struct {
	next Client
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, prompt)
}
