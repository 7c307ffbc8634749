package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"repodigest/internal/types"
	"repodigest/internal/util/jsonutil"
)

// Model output is untrusted. These run after every parse and overwrite the
// identifiers the caller already knows.

func enforceFilePath(s *types.FileSummary, path string) {
	s.File.Path = path
}

func enforceBatchID(b *types.BatchSemanticSummary, id int) {
	b.BatchID = id
}

func enforceBatchMembers(b *types.BatchSemanticSummary, summaries []types.FileSummary) {
	b.MemberFiles = memberPaths(summaries)
}

func enforceRepoAnalysisID(p *types.ProjectAnalysis, id string) {
	p.RepoAnalysisID = id
}

func memberPaths(summaries []types.FileSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.Path())
	}
	return out
}

// sameMembers reports whether a resumed batch was built from exactly the
// given summaries, in the same order.
func sameMembers(b types.BatchSemanticSummary, summaries []types.FileSummary) bool {
	return slices.Equal(b.MemberFiles, memberPaths(summaries))
}

// decodeOutput parses a model response into v. Only a missing or invalid
// JSON object fails; fields of an unexpected type are logged and skipped.
func decodeOutput(ctx context.Context, log *slog.Logger, raw string, v any) error {
	err := jsonutil.DecodeObject(raw, v)
	if errors.Is(err, jsonutil.ErrFieldDrift) {
		log.WarnContext(ctx, "llm output has fields of unexpected type", "error", err)
		return nil
	}
	return err
}

// ValidateCodePaths drops related_code_paths that are not in known and
// returns how many were dropped.
func ValidateCodePaths(p *types.ProjectAnalysis, known map[string]struct{}) int {
	dropped := 0
	for i := range p.CoreFeatures {
		impl := &p.CoreFeatures[i].Implementation
		kept := impl.RelatedCodePaths[:0]
		for _, path := range impl.RelatedCodePaths {
			if _, ok := known[path]; ok {
				kept = append(kept, path)
				continue
			}
			dropped++
		}
		impl.RelatedCodePaths = kept
	}
	return dropped
}

// knownPaths collects the caller-assigned member paths of the batches. Paths
// the batch model wrote into related_files are not trusted.
func knownPaths(batches []types.BatchSemanticSummary) map[string]struct{} {
	known := make(map[string]struct{})
	for _, b := range batches {
		for _, p := range b.MemberFiles {
			known[p] = struct{}{}
		}
	}
	return known
}
