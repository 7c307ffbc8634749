package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"repodigest/internal/artifact"
	"repodigest/internal/llm"
	"repodigest/internal/prompt"
	"repodigest/internal/scan"
	"repodigest/internal/types"
)

// FileSummarizer turns one source file into a FileSummary with a single LLM
// call.
type FileSummarizer struct {
	LLM llm.Client
	// Checkpoints, when set, receives every summary as soon as it is parsed.
	Checkpoints *artifact.Checkpoints
	SnippetHead int
	SnippetTail int
	Language    string
	// Resume reuses an existing checkpoint instead of calling the model.
	Resume bool
	Log    *slog.Logger
}

func (s *FileSummarizer) Summarize(ctx context.Context, f types.FileRecord, userContext string) (types.FileSummary, error) {
	if s.Resume && s.Checkpoints != nil {
		var cached types.FileSummary
		ok, err := s.Checkpoints.GetJSON(ctx, artifact.FileKey(f.Path), &cached)
		if err != nil {
			s.logger().WarnContext(ctx, "ignoring unreadable file checkpoint", "path", f.Path, "error", err)
		} else if ok && cached.Path() == f.Path {
			return cached, nil
		} else if ok {
			s.logger().WarnContext(ctx, "ignoring file checkpoint of another path", "path", f.Path, "checkpoint_path", cached.Path())
		}
	}

	p, err := prompt.FileSummary(prompt.FileSummaryData{
		Path:        f.Path,
		Snippet:     scan.MakeSnippet(f.Content, s.SnippetHead, s.SnippetTail),
		UserContext: userContext,
		Language:    s.Language,
	})
	if err != nil {
		return types.FileSummary{}, err
	}

	raw, err := s.LLM.Complete(llm.WithStage(ctx, llm.StageFileSummary), p)
	if err != nil {
		return types.FileSummary{}, fmt.Errorf("summarize %s: %w", f.Path, err)
	}
	var out types.FileSummary
	if err := decodeOutput(ctx, s.logger(), raw, &out); err != nil {
		return types.FileSummary{}, fmt.Errorf("summarize %s: %w", f.Path, err)
	}
	enforceFilePath(&out, f.Path)

	if s.Checkpoints != nil {
		if err := s.Checkpoints.PutJSON(ctx, artifact.FileKey(f.Path), out); err != nil {
			s.logger().WarnContext(ctx, "file checkpoint failed", "path", f.Path, "error", err)
		}
	}
	return out, nil
}

func (s *FileSummarizer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
