package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"repodigest/internal/artifact"
	"repodigest/internal/llm"
	"repodigest/internal/prompt"
	"repodigest/internal/types"
)

// BatchSynthesizer clusters the file summaries of one batch into 1-5 feature
// clusters.
type BatchSynthesizer struct {
	LLM         llm.Client
	Checkpoints *artifact.Checkpoints
	Language    string
	Resume      bool
	Log         *slog.Logger
}

func (s *BatchSynthesizer) Synthesize(ctx context.Context, batchID int, summaries []types.FileSummary, userContext string) (types.BatchSemanticSummary, error) {
	if s.Resume && s.Checkpoints != nil {
		var cached types.BatchSemanticSummary
		ok, err := s.Checkpoints.GetJSON(ctx, artifact.BatchKey(batchID), &cached)
		if err != nil {
			s.logger().WarnContext(ctx, "ignoring unreadable batch checkpoint", "batch_id", batchID, "error", err)
		} else if ok && sameMembers(cached, summaries) {
			enforceBatchID(&cached, batchID)
			return cached, nil
		} else if ok {
			s.logger().WarnContext(ctx, "batch checkpoint was built from other files, recomputing", "batch_id", batchID)
		}
	}

	p, err := prompt.BatchSemantic(prompt.BatchSemanticData{
		BatchID:     batchID,
		FilesCount:  len(summaries),
		Files:       types.Compact(summaries),
		UserContext: userContext,
		Language:    s.Language,
	})
	if err != nil {
		return types.BatchSemanticSummary{}, err
	}

	raw, err := s.LLM.Complete(llm.WithStage(ctx, llm.StageBatchSemantic), p)
	if err != nil {
		return types.BatchSemanticSummary{}, fmt.Errorf("batch %d: %w", batchID, err)
	}
	var out types.BatchSemanticSummary
	if err := decodeOutput(ctx, s.logger(), raw, &out); err != nil {
		return types.BatchSemanticSummary{}, fmt.Errorf("batch %d: %w", batchID, err)
	}
	enforceBatchID(&out, batchID)
	enforceBatchMembers(&out, summaries)

	if n := len(out.FeatureClusters); n < 1 || n > 5 {
		s.logger().WarnContext(ctx, "batch cluster count outside 1-5", "batch_id", batchID, "clusters", n)
	}

	if s.Checkpoints != nil {
		if err := s.Checkpoints.PutJSON(ctx, artifact.BatchKey(batchID), out); err != nil {
			s.logger().WarnContext(ctx, "batch checkpoint failed", "batch_id", batchID, "error", err)
		}
	}
	return out, nil
}

func (s *BatchSynthesizer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
