package reportstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodigest/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("REPORTS_PG_DSN")
	if dsn == "" {
		t.Skip("REPORTS_PG_DSN not set")
	}
	s, err := NewPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := types.ProjectAnalysis{
		RepoAnalysisID: "test_reportstore",
		ProjectDomain:  "e-commerce",
		CoreFeatures:   []types.CoreFeature{{FeatureName: "checkout"}, {FeatureName: "catalog"}},
	}

	require.NoError(t, s.Upsert(ctx, 1, a, "file:///tmp/a.json"))
	got, ok, err := s.Get(ctx, "test_reportstore")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.RunID)
	assert.Equal(t, 2, got.FeatureCount)
	assert.Equal(t, types.Text("checkout"), got.Analysis.CoreFeatures[0].FeatureName)

	a.ProjectDomain = "retail"
	require.NoError(t, s.Upsert(ctx, 2, a, ""))
	got, ok, err = s.Get(ctx, "test_reportstore")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.RunID)
	assert.Equal(t, "retail", got.ProjectDomain)

	_, ok, err = s.Get(ctx, "does_not_exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpsertRequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Upsert(context.Background(), 1, types.ProjectAnalysis{}, ""))
}
