package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"repodigest/internal/util/jsonutil"
)

const (
	filesDir       = "files"
	batchesDir     = "batches"
	transcriptsDir = "transcripts"
)

// FileKey is the checkpoint key of one file summary. The path is
// percent-escaped into a single segment, so every file summary lives directly
// under files/ and distinct paths never share a key.
func FileKey(path string) string {
	return filesDir + "/" + url.PathEscape(path) + ".json"
}

func BatchKey(batchID int) string {
	return fmt.Sprintf("%s/batch_%d_semantic.json", batchesDir, batchID)
}

const CommitStyleKey = "commit_style.json"

// FinalKey is the key of the merged project analysis.
func FinalKey(repoAnalysisID string) string {
	return repoAnalysisID + "_analysis.json"
}

// Checkpoints reads and writes JSON artifacts of a single analysis scope.
type Checkpoints struct {
	store Store
	scope string
}

func NewCheckpoints(store Store, scope string) *Checkpoints {
	return &Checkpoints{store: store, scope: scope}
}

func (c *Checkpoints) Scope() string { return c.scope }

func (c *Checkpoints) Store() Store { return c.store }

func (c *Checkpoints) PutJSON(ctx context.Context, path string, v any) error {
	b, err := jsonutil.MarshalNoEscapeIndent(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := c.store.Put(ctx, c.scope, path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// GetJSON decodes the artifact at path into v. It returns (false, nil) when
// the artifact does not exist.
func (c *Checkpoints) GetJSON(ctx context.Context, path string, v any) (bool, error) {
	b, err := c.store.Get(ctx, c.scope, path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

type transcript struct {
	Stage     string    `json:"stage"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptRecorder stores every prompt/response pair under transcripts/.
// It satisfies llm.PromptHook. Write failures are logged, never returned.
type TranscriptRecorder struct {
	cp  *Checkpoints
	seq atomic.Int64
	log *slog.Logger
	now func() time.Time
}

func NewTranscriptRecorder(cp *Checkpoints, logger *slog.Logger) *TranscriptRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptRecorder{cp: cp, log: logger, now: time.Now}
}

func (r *TranscriptRecorder) Before(context.Context, string, string) {}

func (r *TranscriptRecorder) After(ctx context.Context, stage, prompt, response string, err error) {
	n := r.seq.Add(1)
	t := transcript{Stage: stage, Prompt: prompt, Response: response, CreatedAt: r.now().UTC()}
	if err != nil {
		t.Error = err.Error()
	}
	key := fmt.Sprintf("%s/%05d_%s.json", transcriptsDir, n, stage)
	if werr := r.cp.PutJSON(ctx, key, t); werr != nil {
		r.log.WarnContext(ctx, "failed to record transcript", "key", key, "error", werr)
	}
}
