package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"repodigest/internal/logger"
)

type ConsumerConfig struct {
	Stream       string        // Redis stream name
	Group        string        // consumer group
	Consumer     string        // consumer name within the group
	DLQStream    string        // stream receiving jobs that exhausted MaxAttempts
	BatchSize    int64         // messages per read
	Block        time.Duration // how long a read waits for new messages
	MaxAttempts  int
	RequeueDelay time.Duration
}

type Message struct {
	ID  string
	Job AnalysisJob
	Raw redis.XMessage
}

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(ctx context.Context, client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}
	if err := consumer.ensureGroup(ctx); err != nil {
		return nil, err
	}
	return consumer, nil
}

func (c *RedisConsumer) Config() ConsumerConfig { return c.cfg }

// ensureGroup creates the group from the start of the stream so jobs added
// before the first worker started are not lost.
func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "repodigest.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "dropping unparseable message",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	return nil
}

// Requeue acks msg and appends it again with the attempt counter bumped.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for requeue: %w", err)
	}

	job := msg.Job
	job.Attempt++
	values := jobValues(job)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RequeueDelay):
		}
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "job requeued", "next_attempt", job.Attempt, "reason", errMsg)
	return nil
}

func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := jobValues(msg.Job)
	values["error"] = errMsg

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.DLQStream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "job sent to DLQ", "final_error", errMsg, "dlq_stream", c.cfg.DLQStream)
	return nil
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	var (
		job AnalysisJob
		err error
	)
	strs := map[string]*string{
		"owner":        &job.Owner,
		"name":         &job.Name,
		"root":         &job.Root,
		"profile":      &job.Profile,
		"user_context": &job.UserContext,
		"commits_file": &job.CommitsFile,
		"trace_id":     &job.TraceID,
	}
	for key, dst := range strs {
		if *dst, err = parseOptionalString(msg.Values, key); err != nil {
			return Message{}, err
		}
	}
	runID, err := parseOptionalInt64(msg.Values, "run_id")
	if err != nil {
		return Message{}, err
	}
	if runID != nil {
		job.RunID = *runID
	}
	if job.Attempt, err = parseOptionalInt(msg.Values, "attempt"); err != nil {
		return Message{}, err
	}
	if job.Attempt == 0 {
		job.Attempt = 1
	}
	if err := job.validate(); err != nil {
		return Message{}, err
	}
	return Message{ID: msg.ID, Job: job, Raw: msg}, nil
}

func parseOptionalInt64(values map[string]any, key string) (*int64, error) {
	raw, ok := values[key]
	if !ok {
		return nil, nil
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &num, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}

func jobValues(job AnalysisJob) map[string]any {
	values := map[string]any{
		"owner":   job.Owner,
		"name":    job.Name,
		"root":    job.Root,
		"attempt": job.Attempt,
	}
	if job.RunID != 0 {
		values["run_id"] = job.RunID
	}
	if job.Profile != "" {
		values["profile"] = job.Profile
	}
	if job.UserContext != "" {
		values["user_context"] = job.UserContext
	}
	if job.CommitsFile != "" {
		values["commits_file"] = job.CommitsFile
	}
	if job.TraceID != "" {
		values["trace_id"] = job.TraceID
	}
	return values
}
