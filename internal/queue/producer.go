package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, job AnalysisJob) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, job AnalysisJob) error {
	if err := job.validate(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	if job.Attempt <= 0 {
		job.Attempt = 1
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: jobValues(job),
	}).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued analysis job",
		"repo_analysis_id", job.RepoAnalysisID(),
		"run_id", job.RunID,
		"attempt", job.Attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
