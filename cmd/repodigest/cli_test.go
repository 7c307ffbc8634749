package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repodigest/internal/config"
)

func TestRepoFlags_ApplyOnlyChanged(t *testing.T) {
	var f repoFlags
	fs := pflag.NewFlagSet("t", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--owner", "acme", "--profile", "django"}))

	repo := config.RepoConfig{Root: "/keep", Owner: "old", Name: "shop", Profile: "generic"}
	f.apply(fs, &repo)
	assert.Equal(t, config.RepoConfig{Root: "/keep", Owner: "acme", Name: "shop", Profile: "django"}, repo)
}

func TestAnalyzeCommand_FakeProvider(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "README.md"), []byte("# shop\n"), 0o644))
	out := t.TempDir()

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"analyze",
		"--root", repo, "--owner", "acme", "--repo", "shop",
		"--provider", "fake", "--output", out, "--env", "test",
	})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), "repo_analysis_id: acme_shop")
	assert.Contains(t, stdout.String(), "2 summarized")
	_, err := os.Stat(filepath.Join(out, "acme_shop", "acme_shop_analysis.json"))
	assert.NoError(t, err)
}
