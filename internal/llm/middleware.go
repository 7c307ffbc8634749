package llm

import (
	"context"
	"log/slog"
	"time"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging, hooks).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger uses
// slog.Default().
func WithLogging(logger *slog.Logger) Middleware {
	return func(next Client) Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Client
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, prompt string) (string, error) {
	lg := l.log
	if lg == nil {
		lg = slog.Default()
	}
	start := time.Now()
	out, err := l.next.Complete(ctx, prompt)
	if err != nil {
		lg.WarnContext(ctx, "llm call failed",
			"client", l.next.Name(),
			"stage", StageFrom(ctx),
			"prompt_bytes", len(prompt),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return out, err
	}
	lg.DebugContext(ctx, "llm call",
		"client", l.next.Name(),
		"stage", StageFrom(ctx),
		"prompt_bytes", len(prompt),
		"response_bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// -------- Hooks --------

// PromptHook observes every prompt and raw response.
type PromptHook interface {
	Before(ctx context.Context, stage, prompt string)
	After(ctx context.Context, stage, prompt, response string, err error)
}

// WithHooks calls hook.Before/After around Complete. A nil hook is a no-op.
func WithHooks(hook PromptHook) Middleware {
	return func(next Client) Client {
		if hook == nil {
			return next
		}
		return &hooked{next: next, hook: hook}
	}
}

type hooked struct {
	next Client
	hook PromptHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) Complete(ctx context.Context, prompt string) (string, error) {
	stage := StageFrom(ctx)
	h.hook.Before(ctx, stage, prompt)
	out, err := h.next.Complete(ctx, prompt)
	h.hook.After(ctx, stage, prompt, out, err)
	return out, err
}
