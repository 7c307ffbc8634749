package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodigest/internal/artifact"
	"repodigest/internal/llm"
	"repodigest/internal/scan"
	"repodigest/internal/types"
	"repodigest/internal/util/jsonutil"
)

func respondWith(text string) *llm.FakeClient {
	return llm.NewFakeClient(func(context.Context, llm.FakeCall) (string, error) {
		return text, nil
	})
}

func TestBatchSynthesizer_OverwritesBatchID(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"wrong id", `{"batch_id": 99, "feature_clusters": [{"cluster_name": "auth"}]}`},
		{"missing id", "Here you go:\n```json\n{\"feature_clusters\": [{\"cluster_name\": \"auth\"}]}\n```"},
		{"string id", `{"batch_id": "first", "feature_clusters": []}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &BatchSynthesizer{LLM: respondWith(tc.response)}
			out, err := s.Synthesize(context.Background(), 4, nil, "")
			require.NoError(t, err)
			assert.Equal(t, 4, out.BatchID)
		})
	}
}

func TestBatchSynthesizer_CheckpointsResult(t *testing.T) {
	store, err := artifact.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	cp := artifact.NewCheckpoints(store, "acme_shop")
	s := &BatchSynthesizer{LLM: llm.NewFakeClient(nil), Checkpoints: cp}

	_, err = s.Synthesize(context.Background(), 2, []types.FileSummary{{File: types.FileHeader{Path: "a.go"}}}, "")
	require.NoError(t, err)

	var saved types.BatchSemanticSummary
	ok, err := cp.GetJSON(context.Background(), artifact.BatchKey(2), &saved)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, saved.BatchID)
}

func TestBatchSynthesizer_PromptCarriesCompactFiles(t *testing.T) {
	fake := llm.NewFakeClient(nil)
	s := &BatchSynthesizer{LLM: fake}
	_, err := s.Synthesize(context.Background(), 1, []types.FileSummary{{File: types.FileHeader{Path: "svc/order.go"}}}, "a shop backend")
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "svc/order.go")
	assert.Contains(t, calls[0].Prompt, "a shop backend")
}

func TestFileSummarizer_OverwritesPathAndTruncates(t *testing.T) {
	fake := llm.NewFakeClient(nil)
	s := &FileSummarizer{LLM: fake, SnippetHead: 10, SnippetTail: 10}
	content := strings.Repeat("a", 10) + strings.Repeat("m", 50) + strings.Repeat("z", 10)

	out, err := s.Summarize(context.Background(), types.FileRecord{Path: "pkg/long.go", Content: content}, "")
	require.NoError(t, err)
	assert.Equal(t, "pkg/long.go", out.Path())

	p := fake.Calls()[0].Prompt
	assert.Contains(t, p, strings.Repeat("a", 10)+scan.TruncationMarker+strings.Repeat("z", 10))
	assert.NotContains(t, p, "mmm")
}

func TestFileSummarizer_PropagatesFailures(t *testing.T) {
	s := &FileSummarizer{LLM: respondWith("no object here")}
	_, err := s.Summarize(context.Background(), types.FileRecord{Path: "a.go"}, "")
	assert.ErrorIs(t, err, jsonutil.ErrMalformedOutput)

	s = &FileSummarizer{LLM: llm.NewFakeClient(func(context.Context, llm.FakeCall) (string, error) {
		return "", &llm.HTTPError{StatusCode: 400}
	})}
	_, err = s.Summarize(context.Background(), types.FileRecord{Path: "a.go"}, "")
	var httpErr *llm.HTTPError
	assert.True(t, errors.As(err, &httpErr))
}

func TestProjectSynthesizer_EnforcesIDAndCodePaths(t *testing.T) {
	resp := `{
  "repo_analysis_id": "someone_else",
  "project_domain": "e-commerce",
  "core_features": [
    {"feature_name": "checkout", "implementation": {"method": "service layer", "related_code_paths": ["svc/order.go", "made/up.go"]}},
    {"feature_name": "catalog", "implementation": {"implementation_method": "repo", "related_code_paths": ["repo/item.go"]}}
  ]
}`
	batches := []types.BatchSemanticSummary{{
		BatchID:     1,
		MemberFiles: []string{"svc/order.go", "repo/item.go"},
	}}

	s := &ProjectSynthesizer{LLM: respondWith(resp), MinFeatures: 2, MaxFeatures: 5, StrictCodePaths: true}
	out, err := s.Synthesize(context.Background(), batches, "acme_shop")
	require.NoError(t, err)

	assert.Equal(t, "acme_shop", out.RepoAnalysisID)
	require.Len(t, out.CoreFeatures, 2)
	assert.Equal(t, types.Text("service layer"), out.CoreFeatures[0].Implementation.Method)
	assert.Equal(t, types.StringList{"svc/order.go"}, out.CoreFeatures[0].Implementation.RelatedCodePaths)
	assert.Equal(t, types.StringList{"repo/item.go"}, out.CoreFeatures[1].Implementation.RelatedCodePaths)

	s.StrictCodePaths = false
	out, err = s.Synthesize(context.Background(), batches, "acme_shop")
	require.NoError(t, err)
	assert.Len(t, out.CoreFeatures[0].Implementation.RelatedCodePaths, 2)
}

func TestProjectSynthesizer_TrustsMemberFilesNotRelatedFiles(t *testing.T) {
	resp := `{"core_features": [
    {"feature_name": "checkout", "implementation": {"method": "svc", "related_code_paths": ["svc/order.go", "ghost/invented.go", "repo/item.go"]}}
  ]}`
	batches := []types.BatchSemanticSummary{{
		BatchID:     1,
		MemberFiles: []string{"svc/order.go", "repo/item.go"},
		// the batch model named a file that was never in the batch and left out a real one
		FeatureClusters: []types.FeatureCluster{{RelatedFiles: []string{"svc/order.go", "ghost/invented.go"}}},
	}}

	s := &ProjectSynthesizer{LLM: respondWith(resp), StrictCodePaths: true}
	out, err := s.Synthesize(context.Background(), batches, "acme_shop")
	require.NoError(t, err)
	require.Len(t, out.CoreFeatures, 1)
	assert.Equal(t, types.StringList{"svc/order.go", "repo/item.go"}, out.CoreFeatures[0].Implementation.RelatedCodePaths)
}

func TestBatchSynthesizer_RecordsMemberFiles(t *testing.T) {
	s := &BatchSynthesizer{LLM: respondWith(`{"member_files": ["made/up.go"], "feature_clusters": []}`)}
	summaries := []types.FileSummary{{File: types.FileHeader{Path: "b.go"}}, {File: types.FileHeader{Path: "a.go"}}}
	out, err := s.Synthesize(context.Background(), 1, summaries, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.go", "a.go"}, out.MemberFiles)
}

func TestFileSummarizer_ToleratesFieldTypeDrift(t *testing.T) {
	resp := `{
  "file": {"path": 7, "language": ["Python", "SQL"], "frameworks": "Django", "confidence": "high"},
  "feature_candidates": "n/a",
  "evidence": ["from django.db import models", {"type": "import", "text": "import os"}],
  "quality_signals": {"risks": "none found", "strengths": [1, true]},
  "reviewer_notes": {"tone": "terse"}
}`
	store, err := artifact.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	cp := artifact.NewCheckpoints(store, "acme_shop")
	s := &FileSummarizer{LLM: respondWith(resp), Checkpoints: cp}

	out, err := s.Summarize(context.Background(), types.FileRecord{Path: "app/models.py"}, "")
	require.NoError(t, err)

	assert.Equal(t, "app/models.py", out.Path())
	assert.Equal(t, types.Text("Python, SQL"), out.File.Language)
	assert.Equal(t, types.StringList{"Django"}, out.File.Frameworks)
	assert.InDelta(t, 0.8, float64(out.File.Confidence), 1e-9)
	assert.Empty(t, out.FeatureCandidates)
	require.Len(t, out.Evidence, 2)
	assert.Equal(t, types.Text("from django.db import models"), out.Evidence[0].Text)
	assert.Equal(t, types.Evidence{Type: "import", Text: "import os"}, out.Evidence[1])
	assert.Equal(t, types.StringList{"none found"}, out.QualitySignals.Risks)
	assert.Equal(t, types.StringList{"1", "true"}, out.QualitySignals.Strengths)
	assert.JSONEq(t, `{"tone":"terse"}`, string(out.Extra["reviewer_notes"]))

	raw, err := store.Get(context.Background(), "acme_shop", artifact.FileKey("app/models.py"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"reviewer_notes"`)
}

func TestBatchSynthesizer_ToleratesFieldTypeDrift(t *testing.T) {
	resp := `{
  "batch_mixture_flag": "yes",
  "languages": "Java",
  "feature_clusters": [{
    "cluster_name": "orders",
    "related_files": ["svc/order.go"],
    "evidence": [{"type": "import", "text": "gorm"}, "uses transactions"],
    "confidence": "75%"
  }]
}`
	s := &BatchSynthesizer{LLM: respondWith(resp)}
	out, err := s.Synthesize(context.Background(), 1, nil, "")
	require.NoError(t, err)

	assert.True(t, bool(out.BatchMixtureFlag))
	assert.Equal(t, types.StringList{"Java"}, out.Languages)
	require.Len(t, out.FeatureClusters, 1)
	c := out.FeatureClusters[0]
	require.Len(t, c.Evidence, 2)
	assert.JSONEq(t, `{"type":"import","text":"gorm"}`, c.Evidence[0])
	assert.Equal(t, "uses transactions", c.Evidence[1])
	assert.InDelta(t, 0.75, float64(c.Confidence), 1e-9)
}

func TestCommitStyleAnalyzer_ToleratesFieldTypeDrift(t *testing.T) {
	a := &CommitStyleAnalyzer{LLM: respondWith(`{"collaboration_type": "team", "collaboration_signals": {"rules_presence": true, "rules_evidence": "conventional commits"}}`), MaxMessages: 15}
	out, err := a.Analyze(context.Background(), types.CommitMetadata{})
	require.NoError(t, err)
	assert.Equal(t, types.Text("team"), out.CollaborationType)
	assert.Equal(t, types.Text("true"), out.CollaborationSignals.RulesPresence)
	assert.Equal(t, types.StringList{"conventional commits"}, out.CollaborationSignals.RulesEvidence)
}

func TestProjectSynthesizer_FeatureBoundIsSoft(t *testing.T) {
	resp := `{"core_features": [{"feature_name": "only one"}]}`
	s := &ProjectSynthesizer{LLM: respondWith(resp), MinFeatures: 2, MaxFeatures: 5}
	out, err := s.Synthesize(context.Background(), nil, "acme_shop")
	require.NoError(t, err)
	assert.Len(t, out.CoreFeatures, 1)
}

func TestValidateCodePaths(t *testing.T) {
	p := types.ProjectAnalysis{CoreFeatures: []types.CoreFeature{
		{Implementation: types.Implementation{RelatedCodePaths: []string{"a", "b", "c"}}},
		{Implementation: types.Implementation{}},
	}}
	dropped := ValidateCodePaths(&p, map[string]struct{}{"b": {}})
	assert.Equal(t, 2, dropped)
	assert.Equal(t, types.StringList{"b"}, p.CoreFeatures[0].Implementation.RelatedCodePaths)
}

func TestCommitStyleAnalyzer_SamplesMessages(t *testing.T) {
	fake := llm.NewFakeClient(nil)
	a := &CommitStyleAnalyzer{LLM: fake, MaxMessages: 15}
	meta := types.CommitMetadata{}
	for i := 0; i < 20; i++ {
		meta.Commits = append(meta.Commits, types.Commit{Message: "msg-" + string(rune('a'+i)), AuthorName: "amy"})
	}

	out, err := a.Analyze(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, types.Text("solo"), out.CollaborationType)

	p := fake.Calls()[0].Prompt
	assert.Contains(t, p, "msg-g")    // 7th
	assert.NotContains(t, p, "msg-h") // 8th, dropped
	assert.NotContains(t, p, "msg-l") // 12th, dropped
	assert.Contains(t, p, "msg-m")    // 13th, first of the tail
	assert.Contains(t, p, "msg-t")    // 20th
}
