package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"repodigest/internal/artifact"
	"repodigest/internal/commits"
	"repodigest/internal/pipeline"
	"repodigest/internal/util/jsonutil"
)

var (
	commitsRepo repoFlags
	commitsMax  int
)

var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "Classify the collaboration style from commit history",
	Long: `Sample the commit messages of an exported commit history and ask the LLM
for the collaboration style. The result is printed as JSON and, when owner and
repo are known, stored as commit_style.json next to the other checkpoints.

Example:
  repodigest commits --commits shop.commits.json --owner acme --repo shop`,
	RunE: runCommits,
}

func init() {
	fs := commitsCmd.Flags()
	commitsRepo.register(fs)
	fs.IntVar(&commitsMax, "max-messages", 0, "Maximum commit messages sent to the model")
	rootCmd.AddCommand(commitsCmd)
}

func runCommits(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	commitsRepo.apply(cmd.Flags(), &cfg.Repo)
	if cmd.Flags().Changed("max-messages") {
		cfg.Pipeline.MaxCommitMessages = commitsMax
	}
	if cfg.Repo.CommitsFile == "" {
		return errors.New("--commits is required")
	}

	meta, err := commits.Load(cfg.Repo.CommitsFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	analyzer := &pipeline.CommitStyleAnalyzer{
		LLM:         a.llm,
		MaxMessages: cfg.Pipeline.MaxCommitMessages,
		Language:    cfg.Pipeline.OutputLanguage,
	}
	style, err := analyzer.Analyze(ctx, meta)
	if err != nil {
		return err
	}

	if cfg.Repo.Owner != "" && cfg.Repo.Name != "" {
		cp := artifact.NewCheckpoints(a.store, cfg.Repo.RepoAnalysisID())
		if err := cp.PutJSON(ctx, artifact.CommitStyleKey, style); err != nil {
			return err
		}
	}

	b, err := jsonutil.MarshalNoEscapeIndent(style)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
