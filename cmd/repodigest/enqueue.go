package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"repodigest/internal/id"
	"repodigest/internal/logger"
	"repodigest/internal/queue"
)

var enqueueRepo repoFlags

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue a repository analysis for a worker",
	Long: `Push an analysis job to the Redis stream consumed by "repodigest worker".
The checkout at --root must be readable by the worker.

Example:
  REDIS_URL=redis://localhost:6379/0 repodigest enqueue --root /repos/shop --owner acme --repo shop`,
	RunE: runEnqueue,
}

func init() {
	enqueueRepo.register(enqueueCmd.Flags())
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	enqueueRepo.apply(cmd.Flags(), &cfg.Repo)
	if !cfg.Queue.Enabled() {
		return fmt.Errorf("queue.redis_url (REDIS_URL) is required")
	}
	logger.Setup(cfg)
	if err := id.Init(cfg.NodeID); err != nil {
		return err
	}

	client, err := queue.NewClient(cfg.Queue.RedisURL)
	if err != nil {
		return err
	}
	producer := queue.NewRedisProducer(client, cfg.Queue.Stream, nil)
	defer producer.Close()

	ctx := cmd.Context()
	sc := logger.StartSpan(ctx, "cli.enqueue")
	defer sc.End()

	job := queue.AnalysisJob{
		Owner:       cfg.Repo.Owner,
		Name:        cfg.Repo.Name,
		Root:        cfg.Repo.Root,
		Profile:     cfg.Repo.Profile,
		UserContext: cfg.Repo.UserContext,
		CommitsFile: cfg.Repo.CommitsFile,
		RunID:       id.New(),
		TraceID:     sc.TraceID(),
	}
	if err := producer.Enqueue(sc.Context(), job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "queued %s as run %d\n", job.RepoAnalysisID(), job.RunID)
	return nil
}
