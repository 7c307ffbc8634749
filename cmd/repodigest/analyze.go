package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"repodigest/internal/id"
)

var (
	analyzeRepo        repoFlags
	analyzeBatchSize   int
	analyzeConcurrency int
	analyzeResume      bool
	analyzeProvider    string
	analyzeOutput      string
	analyzeTranscripts bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one repository checkout",
	Long: `Select files from a repository checkout, summarize each file, cluster the
summaries in batches and synthesize the project report.

Every intermediate result is checkpointed under <output>/<owner>_<repo>/ so an
interrupted run can continue with --resume.

Example:
  repodigest analyze --root ./shop --owner acme --repo shop --profile spring
  repodigest analyze --root ./shop --owner acme --repo shop --commits shop.commits.json --resume`,
	RunE: runAnalyze,
}

func init() {
	fs := analyzeCmd.Flags()
	analyzeRepo.register(fs)
	fs.IntVar(&analyzeBatchSize, "batch-size", 0, "Files per batch")
	fs.IntVar(&analyzeConcurrency, "concurrency", 0, "Parallel LLM calls per stage")
	fs.BoolVar(&analyzeResume, "resume", false, "Reuse existing checkpoints")
	fs.StringVar(&analyzeProvider, "provider", "", "LLM provider: gemini, openai or fake")
	fs.StringVar(&analyzeOutput, "output", "", "Output directory for the disk store")
	fs.BoolVar(&analyzeTranscripts, "transcripts", false, "Store every prompt and response")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	analyzeRepo.apply(fs, &cfg.Repo)
	if fs.Changed("batch-size") {
		cfg.Pipeline.BatchSize = analyzeBatchSize
	}
	if fs.Changed("concurrency") {
		cfg.Pipeline.Concurrency = analyzeConcurrency
	}
	if fs.Changed("resume") {
		cfg.Pipeline.Resume = analyzeResume
	}
	if fs.Changed("provider") {
		cfg.LLM.Provider = analyzeProvider
	}
	if fs.Changed("output") {
		cfg.Storage.Dir = analyzeOutput
	}
	if fs.Changed("transcripts") {
		cfg.Pipeline.RecordTranscripts = analyzeTranscripts
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	res, err := a.runner().Analyze(ctx, cfg.Repo, id.New())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "repo_analysis_id: %s\n", res.Analysis.RepoAnalysisID)
	fmt.Fprintf(out, "files:            %d summarized, %d skipped\n", len(res.Summaries), len(res.FailedFiles))
	fmt.Fprintf(out, "batches:          %d of %d synthesized\n", len(res.Batches), res.BatchCount)
	fmt.Fprintf(out, "core features:    %d\n", len(res.Analysis.CoreFeatures))
	if res.ArtifactURL != "" {
		fmt.Fprintf(out, "report:           %s\n", res.ArtifactURL)
	}
	return nil
}
