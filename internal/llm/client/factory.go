package client

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"repodigest/internal/config"
	"repodigest/internal/llm"
)

// Options carries the shared pieces a client is wrapped with.
type Options struct {
	// Limiter is shared by every client of the process; nil builds one from
	// the config.
	Limiter *rate.Limiter
	Hook    llm.PromptHook
	Logger  *slog.Logger
}

// New builds the configured provider client wrapped as
// logging -> retry -> rate limit -> hooks -> provider.
func New(ctx context.Context, cfg config.LLMConfig, opts Options) (llm.Client, error) {
	var (
		inner llm.Client
		err   error
	)
	switch cfg.Provider {
	case "gemini":
		inner, err = NewGeminiClient(ctx, cfg.APIKey, cfg.Model, float32(cfg.Temperature))
	case "openai":
		inner, err = NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature)
	case "fake":
		inner = llm.NewFakeClient(nil)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	lim := opts.Limiter
	if lim == nil {
		lim = llm.NewLimiter(cfg.RPM, cfg.Burst)
	}
	return llm.Wrap(inner,
		llm.WithLogging(opts.Logger),
		llm.Retry(llm.RetryConfig{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BackoffBase,
			MaxDelay:    cfg.BackoffMax,
			Logger:      opts.Logger,
		}),
		llm.RateLimit(lim),
		llm.WithHooks(opts.Hook),
	), nil
}
