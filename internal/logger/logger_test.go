package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodigest/internal/config"
)

func TestWithLogFields_Merges(t *testing.T) {
	ctx := WithLogFields(context.Background(), LogFields{RepoAnalysisID: Ptr("acme_shop"), Component: "a"})
	ctx = WithLogFields(ctx, LogFields{BatchID: Ptr(2), Component: "b"})

	f := GetLogFields(ctx)
	require.NotNil(t, f.RepoAnalysisID)
	assert.Equal(t, "acme_shop", *f.RepoAnalysisID)
	require.NotNil(t, f.BatchID)
	assert.Equal(t, 2, *f.BatchID)
	assert.Equal(t, "b", f.Component)
}

func TestTraceHandler_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Env = "production"
	log := New(cfg, &buf)

	ctx := WithLogFields(context.Background(), LogFields{
		RepoAnalysisID: Ptr("acme_shop"),
		Stage:          Ptr("batch_semantic"),
		BatchID:        Ptr(3),
		Component:      "repodigest.pipeline",
	})
	log.InfoContext(ctx, "batch done")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "batch done", rec["msg"])
	assert.Equal(t, "acme_shop", rec["repo_analysis_id"])
	assert.Equal(t, "batch_semantic", rec["stage"])
	assert.Equal(t, float64(3), rec["batch_id"])
	assert.Equal(t, "repodigest.pipeline", rec["component"])
	assert.NotContains(t, rec, "trace_id")
}

func TestNew_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Env = "development"
	New(cfg, &buf).Debug("hello")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	cfg.Env = "staging"
	New(cfg, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

func TestStartSpan_NoopProviderHasNoTraceID(t *testing.T) {
	sc := StartSpan(context.Background(), "test")
	defer sc.End()
	assert.Equal(t, "", sc.TraceID())
	sc.RecordError(assert.AnError)
}
