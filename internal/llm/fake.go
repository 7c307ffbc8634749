package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeCall records one request seen by FakeClient.
type FakeCall struct {
	Stage  string
	Prompt string
}

// RespondFunc produces the fake model output for one call.
type RespondFunc func(ctx context.Context, call FakeCall) (string, error)

// FakeClient returns deterministic, minimal JSON payloads per stage for
// offline runs and tests. Set Respond to script custom answers.
type FakeClient struct {
	Respond RespondFunc

	mu    sync.Mutex
	calls []FakeCall
}

func NewFakeClient(respond RespondFunc) *FakeClient {
	return &FakeClient{Respond: respond}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	call := FakeCall{Stage: StageFrom(ctx), Prompt: prompt}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Respond != nil {
		return f.Respond(ctx, call)
	}
	return DefaultFakeResponse(call.Stage), nil
}

// Calls returns a copy of the recorded calls.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// CallsFor counts the recorded calls for one stage.
func (f *FakeClient) CallsFor(stage string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Stage == stage {
			n++
		}
	}
	return n
}

// DefaultFakeResponse returns a fenced JSON answer shaped like a real model
// response for the stage.
func DefaultFakeResponse(stage string) string {
	var obj any
	switch stage {
	case StageFileSummary:
		obj = map[string]any{
			"file": map[string]any{
				"path":        "model-guess.txt",
				"language":    "Go",
				"frameworks":  []string{},
				"libraries":   []string{},
				"layer_guess": "service",
				"confidence":  0.5,
			},
			"domain_signals":     map[string]any{"keywords": []string{"fake"}, "entities": []string{}, "modules": []string{}},
			"feature_candidates": []any{map[string]any{"name": "fake feature", "verb_object": "do thing", "confidence": 0.5}},
			"technique_signals":  map[string]any{"data_access": []string{}, "patterns": []string{}, "cross_cutting": []string{}},
			"quality_signals":    map[string]any{"strengths": []string{}, "risks": []string{}, "missing_standard_checks": []string{}},
			"evidence":           []any{map[string]any{"type": "import", "text": "fake"}},
			"handoff_tags":       map[string]any{"cluster_keys": []string{"fake"}, "related_files_guess": []string{}},
		}
	case StageBatchSemantic:
		obj = map[string]any{
			"batch_id":           0,
			"batch_mixture_flag": false,
			"languages":          []string{"Go"},
			"technologies":       []string{},
			"feature_clusters": []any{map[string]any{
				"cluster_name":     "fake cluster",
				"domain_tags":      []string{"fake"},
				"responsibilities": []string{"fake"},
				"related_files":    []string{},
				"evidence":         []string{},
				"confidence":       0.5,
			}},
			"suggested_cluster_keys": []string{"fake"},
		}
	case StageProjectSynthesis:
		obj = map[string]any{
			"repo_analysis_id": "unknown",
			"project_domain":   "fake domain",
			"tech_stack":       map[string]any{"frameworks": []string{}, "libraries": []string{}},
			"core_features": []any{
				map[string]any{"feature_name": "fake feature A", "feature_description": "fake", "implementation": map[string]any{"implementation_method": "fake", "related_code_paths": []string{}}},
				map[string]any{"feature_name": "fake feature B", "feature_description": "fake", "implementation": map[string]any{"implementation_method": "fake", "related_code_paths": []string{}}},
			},
			"collaboration_style": "unknown",
		}
	case StageCommitStyle:
		obj = map[string]any{
			"collaboration_type": "solo",
			"collaboration_signals": map[string]any{
				"rules_presence":       "weak",
				"rules_evidence":       []string{},
				"coordination_signals": []string{},
			},
		}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return "```json\n" + string(b) + "\n```"
}
