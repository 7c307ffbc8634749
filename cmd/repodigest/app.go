package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"repodigest/internal/artifact"
	"repodigest/internal/config"
	"repodigest/internal/id"
	"repodigest/internal/llm"
	llmclient "repodigest/internal/llm/client"
	"repodigest/internal/logger"
	"repodigest/internal/pipeline"
	"repodigest/internal/reportstore"
	"repodigest/internal/telemetry"
)

// app holds the process-wide dependencies built from the configuration.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	tel     *telemetry.Telemetry
	store   artifact.Store
	llm     llm.Client
	reports *reportstore.Store
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger.Setup(cfg)
	a := &app{cfg: cfg, log: slog.Default()}

	tel, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	a.tel = tel

	if err := id.Init(cfg.NodeID); err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init id generator: %w", err)
	}

	a.store, err = artifact.New(cfg.Storage)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	a.llm, err = llmclient.New(ctx, cfg.LLM, llmclient.Options{Logger: a.log})
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	if cfg.Reports.Enabled() {
		a.reports, err = reportstore.NewPostgres(ctx, cfg.Reports.DSN)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("open report index: %w", err)
		}
	}
	return a, nil
}

func (a *app) runner() *pipeline.Runner {
	r := &pipeline.Runner{
		Cfg:   a.cfg.Pipeline,
		LLM:   a.llm,
		Store: a.store,
		Log:   a.log,
	}
	// A nil *reportstore.Store must not become a non-nil interface.
	if a.reports != nil {
		r.Reports = a.reports
	}
	return r
}

func (a *app) close(ctx context.Context) {
	var errs []error
	if a.llm != nil {
		errs = append(errs, a.llm.Close())
	}
	if a.reports != nil {
		errs = append(errs, a.reports.Close())
	}
	errs = append(errs, a.tel.Shutdown(ctx))
	if err := errors.Join(errs...); err != nil {
		a.log.WarnContext(ctx, "shutdown", "error", err)
	}
}
