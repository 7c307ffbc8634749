// Package reportstore indexes finished analyses in Postgres, keyed by
// repo_analysis_id.
package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"repodigest/internal/types"
)

type Report struct {
	RepoAnalysisID string
	RunID          int64
	ProjectDomain  string
	FeatureCount   int
	ArtifactURL    string
	Analysis       types.ProjectAnalysis
	UpdatedAt      time.Time
}

type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, Report]
}

func NewPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Report](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS analysis_reports (
  repo_analysis_id TEXT PRIMARY KEY,
  run_id BIGINT NOT NULL,
  project_domain TEXT NOT NULL DEFAULT '',
  feature_count INTEGER NOT NULL DEFAULT 0,
  artifact_url TEXT NOT NULL DEFAULT '',
  analysis JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analysis_reports_updated_at ON analysis_reports (updated_at DESC);
`)
	})
	return s.schemaErr
}

// Upsert stores the latest analysis of a repository, replacing earlier runs.
func (s *Store) Upsert(ctx context.Context, runID int64, analysis types.ProjectAnalysis, artifactURL string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	id := strings.TrimSpace(analysis.RepoAnalysisID)
	if id == "" {
		return errors.New("repo_analysis_id is required")
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO analysis_reports (
  repo_analysis_id, run_id, project_domain, feature_count, artifact_url, analysis, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (repo_analysis_id)
DO UPDATE SET run_id=EXCLUDED.run_id,
  project_domain=EXCLUDED.project_domain,
  feature_count=EXCLUDED.feature_count,
  artifact_url=EXCLUDED.artifact_url,
  analysis=EXCLUDED.analysis,
  updated_at=NOW()`,
		id, runID, string(analysis.ProjectDomain), len(analysis.CoreFeatures), artifactURL, string(raw))
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", id, err)
	}
	s.cache.Remove(id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var (
		r   Report
		raw []byte
	)
	if err := row.Scan(&r.RepoAnalysisID, &r.RunID, &r.ProjectDomain, &r.FeatureCount, &r.ArtifactURL, &raw, &r.UpdatedAt); err != nil {
		return Report{}, err
	}
	if err := json.Unmarshal(raw, &r.Analysis); err != nil {
		return Report{}, fmt.Errorf("decode analysis %s: %w", r.RepoAnalysisID, err)
	}
	return r, nil
}

// Get returns the report of one repository. ok is false when none exists.
func (s *Store) Get(ctx context.Context, repoAnalysisID string) (Report, bool, error) {
	id := strings.TrimSpace(repoAnalysisID)
	if cached, ok := s.cache.Get(id); ok {
		return cached, true, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Report{}, false, fmt.Errorf("ensure schema: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT repo_analysis_id, run_id, project_domain, feature_count, artifact_url, analysis, updated_at
FROM analysis_reports WHERE repo_analysis_id = $1`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, false, nil
	}
	if err != nil {
		return Report{}, false, err
	}
	s.cache.Add(id, r)
	return r, true, nil
}

// List returns the most recently updated reports first.
func (s *Store) List(ctx context.Context, limit int) ([]Report, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT repo_analysis_id, run_id, project_domain, feature_count, artifact_url, analysis, updated_at
FROM analysis_reports ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
