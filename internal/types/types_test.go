package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidence_AcceptsLooseValues(t *testing.T) {
	cases := map[string]float64{
		`{"confidence":0.8}`:       0.8,
		`{"confidence":"0.6"}`:     0.6,
		`{"confidence":"75%"}`:     0.75,
		`{"confidence":"High"}`:    0.8,
		`{"confidence":"low"}`:     0.2,
		`{"confidence":null}`:      0,
		`{"confidence":""}`:        0,
		`{"confidence":"unsure"}`:  0,
		`{"confidence":[1]}`:       0,
		`{"confidence":{"v":0.9}}`: 0,
	}
	for in, want := range cases {
		var h FileHeader
		require.NoError(t, json.Unmarshal([]byte(in), &h), in)
		assert.InDelta(t, want, float64(h.Confidence), 1e-9, in)
	}
}

func TestText_AcceptsAnyValue(t *testing.T) {
	cases := map[string]Text{
		`"plain"`:          "plain",
		`12.5`:             "12.5",
		`true`:             "true",
		`null`:             "",
		`["a", 1, null]`:   "a, 1",
		`{"k":"<v>"}`:      `{"k":"<v>"}`,
		`[["x","y"], "z"]`: "x, y, z",
	}
	for in, want := range cases {
		var got Text
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}
}

func TestStringList_AcceptsAnyValue(t *testing.T) {
	cases := map[string]StringList{
		`["a","b"]`:                   {"a", "b"},
		`"single"`:                    {"single"},
		`"  "`:                        nil,
		`null`:                        nil,
		`[1, false, null, "x"]`:       {"1", "false", "x"},
		`[{"type":"call","text":"f"}]`: {`{"text":"f","type":"call"}`},
		`42`:                          {"42"},
	}
	for in, want := range cases {
		var got StringList
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}
}

func TestFlag_AcceptsLooseValues(t *testing.T) {
	cases := map[string]Flag{
		`true`: true, `false`: false, `"yes"`: true, `"No"`: false,
		`1`: true, `0`: false, `null`: false, `"mixed"`: true,
	}
	for in, want := range cases {
		var got Flag
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}
}

func TestImplementation_AcceptsBothMethodKeys(t *testing.T) {
	var a, b, c Implementation
	require.NoError(t, json.Unmarshal([]byte(`{"method":"jwt filter","related_code_paths":["a.go"]}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"implementation_method":"orm","method":"ignored"}`), &b))
	require.NoError(t, json.Unmarshal([]byte(`"event sourcing"`), &c))

	assert.Equal(t, Text("jwt filter"), a.Method)
	assert.Equal(t, StringList{"a.go"}, a.RelatedCodePaths)
	assert.Equal(t, Text("orm"), b.Method)
	assert.Equal(t, Text("event sourcing"), c.Method)

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"implementation_method":"jwt filter"`)
}

func TestBatchSemanticSummary_ToleratesAnyBatchID(t *testing.T) {
	for _, in := range []string{
		`{"batch_id":"seven","languages":["Go"]}`,
		`{"batch_id":null,"languages":["Go"]}`,
		`{"languages":["Go"]}`,
	} {
		var s BatchSemanticSummary
		require.NoError(t, json.Unmarshal([]byte(in), &s), in)
		assert.Equal(t, 0, s.BatchID, in)
		assert.Equal(t, StringList{"Go"}, s.Languages, in)
	}

	var s BatchSemanticSummary
	require.NoError(t, json.Unmarshal([]byte(`{"batch_id":4,"batch_mixture_flag":true,"member_files":["a.go"]}`), &s))
	assert.Equal(t, 4, s.BatchID)
	assert.True(t, bool(s.BatchMixtureFlag))
	assert.Equal(t, []string{"a.go"}, s.MemberFiles)
	assert.Nil(t, s.Extra)
}

func TestFileSummary_KeepsExtraMembers(t *testing.T) {
	in := `{"file":{"path":"a.go"},"zeta":[1,2],"alpha":{"note":"a < b"}}`
	var s FileSummary
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	require.Len(t, s.Extra, 2)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	var back map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &back))
	assert.JSONEq(t, `[1,2]`, string(back["zeta"]))
	assert.JSONEq(t, `{"note":"a < b"}`, string(back["alpha"]))
	assert.Contains(t, back, "file")

	var again FileSummary
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, "a.go", again.Path())
	assert.Len(t, again.Extra, 2)
}

func TestFileSummary_DriftStillFillsTheRest(t *testing.T) {
	var s FileSummary
	err := json.Unmarshal([]byte(`{"file":{"path":"a.go","language":"Go"},"feature_candidates":"none"}`), &s)
	var te *json.UnmarshalTypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "a.go", s.Path())
	assert.Equal(t, Text("Go"), s.File.Language)
	assert.Empty(t, s.FeatureCandidates)
}

func TestProjectAnalysis_ExtraRoundTripsOnEmptyObject(t *testing.T) {
	b, err := marshalWithExtra(struct{}{}, Extra{"b": json.RawMessage(`2`), "a": json.RawMessage(`"x"`)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, string(b))

	var p ProjectAnalysis
	require.NoError(t, json.Unmarshal([]byte(`{"repo_analysis_id":17,"project_domain":"retail","risk_summary":"low"}`), &p))
	assert.Equal(t, "", p.RepoAnalysisID)
	assert.Equal(t, Text("retail"), p.ProjectDomain)
	assert.JSONEq(t, `"low"`, string(p.Extra["risk_summary"]))
}

func TestCompact_PreservesOrder(t *testing.T) {
	in := []FileSummary{{File: FileHeader{Path: "b.go"}}, {File: FileHeader{Path: "a.go"}}}
	out := Compact(in)
	require.Len(t, out, 2)
	assert.Equal(t, "b.go", out[0].Path)
	assert.Equal(t, "a.go", out[1].Path)
	assert.Equal(t, "owner_repo", RepoAnalysisID("owner", "repo"))
}
