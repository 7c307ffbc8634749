// Package worker consumes analysis jobs from the queue and runs the pipeline
// for each of them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"repodigest/internal/config"
	"repodigest/internal/logger"
	"repodigest/internal/pipeline"
	"repodigest/internal/queue"
)

// Source is the subset of queue.RedisConsumer the worker needs.
type Source interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Analyzer runs one repository analysis. *pipeline.Runner satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, repo config.RepoConfig, runID int64) (pipeline.Result, error)
}

type Config struct {
	MaxAttempts int
	// Repo supplies defaults (profile, size limit) for fields a job leaves empty.
	Repo config.RepoConfig
	// ErrorBackoff is the pause after a failed read.
	ErrorBackoff time.Duration
}

type Worker struct {
	source   Source
	analyzer Analyzer
	cfg      Config
	newID    func() int64

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("worker already running")

func New(source Source, analyzer Analyzer, newID func() int64, cfg Config) *Worker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		source:    source,
		analyzer:  analyzer,
		cfg:       cfg,
		newID:     newID,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run polls the source until ctx is done or Stop is called.
func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(w.stoppedCh)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "repodigest.worker"})

	slog.InfoContext(ctx, "worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(w.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// Stop asks Run to return and waits for it. It is safe to call more than once
// and does not block when Run was never started.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started.Load() {
		<-w.stoppedCh
	}
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.source.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}
	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.handleFailedMessage(ctx, msg, err)
		}
	}
	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in job processing", "panic", r, "message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs the analysis for msg and acks it on success.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	job := msg.Job
	runID := job.RunID
	if runID == 0 {
		runID = w.newID()
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:      logger.Ptr(msg.ID),
		RepoAnalysisID: logger.Ptr(job.RepoAnalysisID()),
		RunID:          logger.Ptr(runID),
	})
	sc := logger.StartSpanFromTraceID(ctx, job.TraceID, "worker.process_job", trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "processing job", "attempt", job.Attempt, "root", job.Root)
	res, err := w.analyzer.Analyze(ctx, w.repoConfig(job), runID)
	if err != nil {
		sc.RecordError(err)
		return err
	}

	if err := w.source.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ack job", "error", err)
	}
	slog.InfoContext(ctx, "job done",
		"files", len(res.Summaries),
		"batches", len(res.Batches),
		"failed_batches", len(res.FailedBatches),
		"artifact", res.ArtifactURL)
	return nil
}

func (w *Worker) repoConfig(job queue.AnalysisJob) config.RepoConfig {
	repo := w.cfg.Repo
	repo.Owner = job.Owner
	repo.Name = job.Name
	repo.Root = job.Root
	repo.UserContext = job.UserContext
	repo.CommitsFile = job.CommitsFile
	if job.Profile != "" {
		repo.Profile = job.Profile
	}
	return repo
}

// handleFailedMessage requeues msg until MaxAttempts, then moves it to the
// DLQ. Jobs that left no evidence go to the DLQ at once.
func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Job.Attempt >= w.cfg.MaxAttempts || errors.Is(err, pipeline.ErrNoEvidence) {
		slog.ErrorContext(ctx, "giving up on job, sending to DLQ",
			"message_id", msg.ID,
			"attempts", msg.Job.Attempt,
			"error", err)
		if dlqErr := w.source.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed job",
		"message_id", msg.ID,
		"attempt", msg.Job.Attempt,
		"error", err)
	if requeueErr := w.source.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue job", "error", requeueErr)
	}
}
