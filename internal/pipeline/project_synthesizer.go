package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"repodigest/internal/llm"
	"repodigest/internal/prompt"
	"repodigest/internal/types"
)

// ProjectSynthesizer merges all batch summaries into the final project
// analysis with one LLM call.
type ProjectSynthesizer struct {
	LLM         llm.Client
	MinFeatures int
	MaxFeatures int
	Language    string
	// StrictCodePaths drops related_code_paths that are not member files of
	// the input batches.
	StrictCodePaths bool
	Log             *slog.Logger
}

func (s *ProjectSynthesizer) Synthesize(ctx context.Context, batches []types.BatchSemanticSummary, repoAnalysisID string) (types.ProjectAnalysis, error) {
	p, err := prompt.ProjectSynthesis(prompt.ProjectSynthesisData{
		RepoAnalysisID: repoAnalysisID,
		Batches:        batches,
		MinFeatures:    s.MinFeatures,
		MaxFeatures:    s.MaxFeatures,
		Language:       s.Language,
	})
	if err != nil {
		return types.ProjectAnalysis{}, err
	}

	raw, err := s.LLM.Complete(llm.WithStage(ctx, llm.StageProjectSynthesis), p)
	if err != nil {
		return types.ProjectAnalysis{}, fmt.Errorf("project synthesis: %w", err)
	}
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	var out types.ProjectAnalysis
	if err := decodeOutput(ctx, log, raw, &out); err != nil {
		return types.ProjectAnalysis{}, fmt.Errorf("project synthesis: %w", err)
	}
	enforceRepoAnalysisID(&out, repoAnalysisID)
	if s.StrictCodePaths {
		if dropped := ValidateCodePaths(&out, knownPaths(batches)); dropped > 0 {
			log.WarnContext(ctx, "dropped related_code_paths not present in input", "dropped", dropped)
		}
	}
	if n := len(out.CoreFeatures); (s.MinFeatures > 0 && n < s.MinFeatures) || (s.MaxFeatures > 0 && n > s.MaxFeatures) {
		log.WarnContext(ctx, "core feature count outside bound",
			"features", n, "min", s.MinFeatures, "max", s.MaxFeatures)
	}
	return out, nil
}
