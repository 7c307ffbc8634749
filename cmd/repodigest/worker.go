package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"repodigest/internal/id"
	"repodigest/internal/queue"
	"repodigest/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued analysis jobs",
	Long: `Read analysis jobs from the Redis stream, run the pipeline for each one
and acknowledge it. Failed jobs are requeued until queue.max_attempts, then moved
to the dead letter stream.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Queue.Enabled() {
		return fmt.Errorf("queue.redis_url (REDIS_URL) is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	client, err := queue.NewClient(cfg.Queue.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	consumer, err := queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{
		Stream:      cfg.Queue.Stream,
		Group:       cfg.Queue.Group,
		Consumer:    cfg.Queue.Consumer,
		DLQStream:   cfg.Queue.DLQStream,
		BatchSize:   1,
		Block:       cfg.Queue.Block,
		MaxAttempts: cfg.Queue.MaxAttempts,
	})
	if err != nil {
		return err
	}

	w := worker.New(consumer, a.runner(), id.New, worker.Config{
		MaxAttempts: cfg.Queue.MaxAttempts,
		Repo:        cfg.Repo,
	})
	if err := w.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return nil
}
