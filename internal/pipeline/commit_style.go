package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"repodigest/internal/commits"
	"repodigest/internal/llm"
	"repodigest/internal/prompt"
	"repodigest/internal/types"
)

// CommitStyleAnalyzer classifies the collaboration style of a repository from
// a sample of its commit history.
type CommitStyleAnalyzer struct {
	LLM         llm.Client
	MaxMessages int
	Language    string
	Log         *slog.Logger
}

func (a *CommitStyleAnalyzer) Analyze(ctx context.Context, meta types.CommitMetadata) (types.CommitStyleResult, error) {
	p, err := prompt.CommitStyle(prompt.CommitStyleData{
		Sample:   commits.Sample(meta, a.MaxMessages),
		Language: a.Language,
	})
	if err != nil {
		return types.CommitStyleResult{}, err
	}
	raw, err := a.LLM.Complete(llm.WithStage(ctx, llm.StageCommitStyle), p)
	if err != nil {
		return types.CommitStyleResult{}, fmt.Errorf("commit style: %w", err)
	}
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	var out types.CommitStyleResult
	if err := decodeOutput(ctx, log, raw, &out); err != nil {
		return types.CommitStyleResult{}, fmt.Errorf("commit style: %w", err)
	}
	return out, nil
}
