package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"repodigest/internal/artifact"
	"repodigest/internal/commits"
	"repodigest/internal/config"
	"repodigest/internal/llm"
	"repodigest/internal/logger"
	"repodigest/internal/scan"
	"repodigest/internal/types"
)

// ErrNoEvidence is returned when no batch summary survived, leaving nothing
// for project synthesis.
var ErrNoEvidence = errors.New("no batch summaries to synthesize")

// ReportIndex records finished analyses outside the artifact store.
type ReportIndex interface {
	Upsert(ctx context.Context, runID int64, analysis types.ProjectAnalysis, artifactURL string) error
}

// Runner drives file summaries, batch synthesis, project synthesis and the
// optional commit-style analysis for one repository.
type Runner struct {
	Cfg   config.PipelineConfig
	LLM   llm.Client
	Store artifact.Store
	// Reports is optional.
	Reports ReportIndex
	Log     *slog.Logger
}

type Input struct {
	RepoAnalysisID string
	RunID          int64
	Files          []types.FileRecord
	// Profile names the selection profile the files came from. It picks the
	// snippet window when the config leaves it at 0.
	Profile string
	// Commits is optional; nil skips the commit-style analysis.
	Commits     *types.CommitMetadata
	UserContext string
}

type Result struct {
	Analysis      types.ProjectAnalysis
	Summaries     []types.FileSummary
	Batches       []types.BatchSemanticSummary
	BatchCount    int
	FailedFiles   []string
	FailedBatches []int
	ArtifactURL   string
}

// Analyze selects the files of repo, loads its commit history when configured
// and runs the pipeline.
func (r *Runner) Analyze(ctx context.Context, repo config.RepoConfig, runID int64) (Result, error) {
	sel, err := scan.NewSelector(repo.Profile, repo.MaxFileBytes)
	if err != nil {
		return Result{}, err
	}
	files, err := sel.Select(ctx, repo.Root)
	if err != nil {
		return Result{}, fmt.Errorf("select files: %w", err)
	}
	in := Input{
		RepoAnalysisID: repo.RepoAnalysisID(),
		RunID:          runID,
		Files:          files,
		Profile:        repo.Profile,
		UserContext:    repo.UserContext,
	}
	if repo.CommitsFile != "" {
		meta, err := commits.Load(repo.CommitsFile)
		if err != nil {
			return Result{}, err
		}
		in.Commits = &meta
	}
	return r.Run(ctx, in)
}

func (r *Runner) Run(ctx context.Context, in Input) (Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RepoAnalysisID: logger.Ptr(in.RepoAnalysisID),
		RunID:          logger.Ptr(in.RunID),
		Component:      "repodigest.pipeline.runner",
	})
	sc := logger.StartSpan(ctx, "pipeline.run")
	defer sc.End()
	ctx = sc.Context()

	res, err := r.run(ctx, in)
	if err != nil {
		sc.RecordError(err)
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, in Input) (Result, error) {
	log := r.logger()
	var cp *artifact.Checkpoints
	if r.Store != nil {
		cp = artifact.NewCheckpoints(r.Store, in.RepoAnalysisID)
	}
	client := r.LLM
	if r.Cfg.RecordTranscripts && cp != nil {
		client = llm.Wrap(client, llm.WithHooks(artifact.NewTranscriptRecorder(cp, log)))
	}

	log.InfoContext(ctx, "analysis started", "files", len(in.Files), "batch_size", r.Cfg.BatchSize, "concurrency", r.Cfg.Concurrency)

	var res Result
	var mu sync.Mutex

	// Files.
	head, tail := r.snippetWindow(in.Profile)
	fs := &FileSummarizer{
		LLM:         client,
		Checkpoints: cp,
		SnippetHead: head,
		SnippetTail: tail,
		Language:    r.Cfg.OutputLanguage,
		Resume:      r.Cfg.Resume,
		Log:         log,
	}
	fileSlots := make([]*types.FileSummary, len(in.Files))
	err := forEach(ctx, r.Cfg.Concurrency, in.Files, func(ctx context.Context, i int, f types.FileRecord) error {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(llm.StageFileSummary), Path: logger.Ptr(f.Path)})
		s, err := fs.Summarize(ctx, f, in.UserContext)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WarnContext(ctx, "skipping file", "error", err)
			mu.Lock()
			res.FailedFiles = append(res.FailedFiles, f.Path)
			mu.Unlock()
			return nil
		}
		fileSlots[i] = &s
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Summaries = collect(fileSlots)
	sort.Strings(res.FailedFiles)
	log.InfoContext(ctx, "file summaries done", "ok", len(res.Summaries), "failed", len(res.FailedFiles))

	// Batches.
	bs := &BatchSynthesizer{
		LLM:         client,
		Checkpoints: cp,
		Language:    r.Cfg.OutputLanguage,
		Resume:      r.Cfg.Resume,
		Log:         log,
	}
	groups := Split(res.Summaries, r.Cfg.BatchSize)
	res.BatchCount = len(groups)
	batchSlots := make([]*types.BatchSemanticSummary, len(groups))
	err = forEach(ctx, r.Cfg.Concurrency, groups, func(ctx context.Context, i int, group []types.FileSummary) error {
		id := i + 1
		ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(llm.StageBatchSemantic), BatchID: logger.Ptr(id)})
		b, err := bs.Synthesize(ctx, id, group, in.UserContext)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WarnContext(ctx, "skipping batch", "files", len(group), "error", err)
			mu.Lock()
			res.FailedBatches = append(res.FailedBatches, id)
			mu.Unlock()
			return nil
		}
		batchSlots[i] = &b
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Batches = collect(batchSlots)
	sort.Ints(res.FailedBatches)
	log.InfoContext(ctx, "batch summaries done", "batches", res.BatchCount, "ok", len(res.Batches), "failed", len(res.FailedBatches))
	if len(res.Batches) == 0 {
		return res, ErrNoEvidence
	}

	// Project.
	ps := &ProjectSynthesizer{
		LLM:             client,
		MinFeatures:     r.Cfg.MinFeatures,
		MaxFeatures:     r.Cfg.MaxFeatures,
		Language:        r.Cfg.OutputLanguage,
		StrictCodePaths: r.Cfg.StrictCodePaths,
		Log:             log,
	}
	pctx := logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(llm.StageProjectSynthesis)})
	analysis, err := ps.Synthesize(pctx, res.Batches, in.RepoAnalysisID)
	if err != nil {
		return res, err
	}

	if in.Commits != nil {
		if style, ok := r.commitStyle(ctx, client, cp, *in.Commits); ok {
			analysis.CollaborationStyle = style
		}
	}
	if langs := scan.RankLanguages(in.Files); len(langs) > 0 {
		analysis.TechStack.Languages = types.StringList(langs)
	}
	res.Analysis = analysis

	if cp != nil {
		key := artifact.FinalKey(in.RepoAnalysisID)
		if err := cp.PutJSON(ctx, key, analysis); err != nil {
			return res, fmt.Errorf("write final analysis: %w", err)
		}
		if u, err := r.Store.GetURL(ctx, in.RepoAnalysisID, key); err == nil {
			res.ArtifactURL = u
		}
	}
	if r.Reports != nil {
		if err := r.Reports.Upsert(ctx, in.RunID, analysis, res.ArtifactURL); err != nil {
			log.WarnContext(ctx, "report index upsert failed", "error", err)
		}
	}

	log.InfoContext(ctx, "analysis finished", "features", len(analysis.CoreFeatures), "artifact", res.ArtifactURL)
	return res, nil
}

// commitStyle runs the commit-style analysis. Failures are logged and leave
// the model's own collaboration_style in place.
func (r *Runner) commitStyle(ctx context.Context, client llm.Client, cp *artifact.Checkpoints, meta types.CommitMetadata) (json.RawMessage, bool) {
	log := r.logger()
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(llm.StageCommitStyle)})
	a := &CommitStyleAnalyzer{LLM: client, MaxMessages: r.Cfg.MaxCommitMessages, Language: r.Cfg.OutputLanguage, Log: log}
	style, err := a.Analyze(ctx, meta)
	if err != nil {
		log.WarnContext(ctx, "commit style analysis failed", "error", err)
		return nil, false
	}
	if cp != nil {
		if err := cp.PutJSON(ctx, artifact.CommitStyleKey, style); err != nil {
			log.WarnContext(ctx, "commit style checkpoint failed", "error", err)
		}
	}
	raw, err := json.Marshal(style)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// snippetWindow returns the configured snippet window, filling unset sides
// from the selection profile.
func (r *Runner) snippetWindow(profile string) (head, tail int) {
	head, tail = r.Cfg.SnippetHead, r.Cfg.SnippetTail
	if head > 0 && tail > 0 {
		return head, tail
	}
	p, err := scan.LookupProfile(profile)
	if err != nil {
		p, _ = scan.LookupProfile("")
	}
	if head <= 0 {
		head = p.SnippetHead
	}
	if tail <= 0 {
		tail = p.SnippetTail
	}
	return head, tail
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
