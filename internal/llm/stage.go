package llm

import "context"

// Pipeline stages. Used for logging, hooks and the fake client.
const (
	StageFileSummary      = "file_summary"
	StageBatchSemantic    = "batch_semantic"
	StageProjectSynthesis = "project_synthesis"
	StageCommitStyle      = "commit_style"
)

type ctxKeyStage struct{}

func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage string stored in the context.
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
