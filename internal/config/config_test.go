package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	c := Default()
	c.Repo.Owner = "acme"
	c.Repo.Name = "shop"
	c.LLM.Provider = "fake"
	return c
}

func TestDefault_IsValidOnceRepoIsNamed(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	d := Default()
	assert.Equal(t, 10, d.Pipeline.BatchSize)
	assert.Equal(t, 1, d.Pipeline.Concurrency)
	assert.Equal(t, 15, d.Pipeline.MaxCommitMessages)
	assert.Equal(t, 3, d.LLM.MaxAttempts)
	assert.Equal(t, 10*time.Second, d.LLM.BackoffMax)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := validConfig()
	c.Pipeline.BatchSize = 0
	c.Pipeline.MaxFeatures = 1
	c.Pipeline.MinFeatures = 2
	c.LLM.Provider = "gemini"
	c.Storage.Backend = "ftp"

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "batch_size")
	assert.Contains(t, msg, "feature bound")
	assert.Contains(t, msg, "api_key")
	assert.Contains(t, msg, "storage.backend")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repodigest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
repo:
  root: /src/shop
  owner: acme
  name: shop
  profile: spring
pipeline:
  batch_size: 4
  concurrency: 2
llm:
  provider: openai
  backoff_max: 5s
`), 0o644))

	t.Setenv("REPODIGEST_BATCH_SIZE", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/src/shop", cfg.Repo.Root)
	assert.Equal(t, "spring", cfg.Repo.Profile)
	assert.Equal(t, 7, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.BackoffMax)
	// untouched defaults survive
	assert.Equal(t, 0, cfg.Pipeline.SnippetHead)
	assert.Equal(t, time.Second, cfg.LLM.BackoffBase)
	assert.Equal(t, "acme_shop", cfg.Repo.RepoAnalysisID())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
