package types

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Project ------------------------------------------------------------------------

type TechStack struct {
	Frameworks StringList `json:"frameworks"`
	Libraries  StringList `json:"libraries"`
	Languages  StringList `json:"languages,omitempty"`
}

type Implementation struct {
	Method           Text       `json:"implementation_method"`
	RelatedCodePaths StringList `json:"related_code_paths"`
}

// UnmarshalJSON accepts both "method" and "implementation_method". A bare
// string is taken as the method.
func (i *Implementation) UnmarshalJSON(b []byte) error {
	if t := bytes.TrimSpace(b); len(t) > 0 && t[0] != '{' {
		var m Text
		if err := json.Unmarshal(t, &m); err != nil {
			return err
		}
		*i = Implementation{Method: m}
		return nil
	}
	var raw struct {
		Method               Text       `json:"method"`
		ImplementationMethod Text       `json:"implementation_method"`
		RelatedCodePaths     StringList `json:"related_code_paths"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	i.Method = raw.ImplementationMethod
	if i.Method == "" {
		i.Method = raw.Method
	}
	i.RelatedCodePaths = raw.RelatedCodePaths
	return nil
}

type StandardComparison struct {
	StandardApproach Text `json:"standard_approach"`
	ComparisonResult Text `json:"comparison_result"`
}

type Suggestion struct {
	Suggestion     Text `json:"suggestion"`
	ExpectedEffect Text `json:"expected_effect"`
}

// UnmarshalJSON also accepts a bare string, taken as the suggestion.
func (s *Suggestion) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		*s = Suggestion{Suggestion: Text(textOf(v))}
		return nil
	}
	*s = Suggestion{Suggestion: Text(textOf(obj["suggestion"])), ExpectedEffect: Text(textOf(obj["expected_effect"]))}
	return nil
}

type CoreFeature struct {
	FeatureName                  Text               `json:"feature_name"`
	FeatureDescription           Text               `json:"feature_description"`
	Implementation               Implementation     `json:"implementation"`
	IndustryStandardComparison   StandardComparison `json:"industry_standard_comparison"`
	Strengths                    StringList         `json:"strengths"`
	FutureDevelopmentSuggestions []Suggestion       `json:"future_development_suggestions"`
}

// ProjectAnalysis is the final per-repository report. RepoAnalysisID is
// "{owner}_{repo}" and always assigned by the caller.
type ProjectAnalysis struct {
	RepoAnalysisID     string          `json:"repo_analysis_id"`
	ProjectDomain      Text            `json:"project_domain"`
	TechStack          TechStack       `json:"tech_stack"`
	CoreFeatures       []CoreFeature   `json:"core_features"`
	CollaborationStyle json.RawMessage `json:"collaboration_style,omitempty"`
	Extra              Extra           `json:"-"`
}

type projectAlias ProjectAnalysis

// UnmarshalJSON tolerates a repo_analysis_id of any type; the caller
// overwrites it. Other field type mismatches are returned after the rest of
// the analysis has been filled in.
func (p *ProjectAnalysis) UnmarshalJSON(data []byte) error {
	var raw struct {
		projectAlias
		RepoAnalysisID json.RawMessage `json:"repo_analysis_id"`
	}
	err := json.Unmarshal(data, &raw)
	if err != nil && !isTypeDrift(err) {
		return err
	}
	*p = ProjectAnalysis(raw.projectAlias)
	var id string
	if len(raw.RepoAnalysisID) > 0 && json.Unmarshal(raw.RepoAnalysisID, &id) == nil {
		p.RepoAnalysisID = id
	}
	p.Extra = extraOf(data, reflect.TypeOf(ProjectAnalysis{}))
	return err
}

func (p ProjectAnalysis) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(projectAlias(p), p.Extra)
}

// RepoAnalysisID builds the canonical "{owner}_{repo}" identifier.
func RepoAnalysisID(owner, repo string) string {
	return owner + "_" + repo
}
