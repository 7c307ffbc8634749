package types

import (
	"encoding/json"
	"reflect"
)

// Inputs -------------------------------------------------------------------------

// FileRecord is a selected source file. Path is relative to the repository root
// and uses forward slashes.
type FileRecord struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// File summary -------------------------------------------------------------------

type FileHeader struct {
	Path       string     `json:"path"`
	Language   Text       `json:"language"`
	Frameworks StringList `json:"frameworks"`
	Libraries  StringList `json:"libraries"`
	LayerGuess Text       `json:"layer_guess"`
	Confidence Confidence `json:"confidence"`
}

type DomainSignals struct {
	Keywords StringList `json:"keywords"`
	Entities StringList `json:"entities"`
	Modules  StringList `json:"modules"`
}

type FeatureCandidate struct {
	Name        Text       `json:"name"`
	VerbObject  Text       `json:"verb_object"`
	Inputs      StringList `json:"inputs"`
	Outputs     StringList `json:"outputs"`
	SideEffects StringList `json:"side_effects"`
	Confidence  Confidence `json:"confidence"`
}

type TechniqueSignals struct {
	DataAccess   StringList `json:"data_access"`
	Patterns     StringList `json:"patterns"`
	CrossCutting StringList `json:"cross_cutting"`
}

type QualitySignals struct {
	Strengths             StringList `json:"strengths"`
	Risks                 StringList `json:"risks"`
	MissingStandardChecks StringList `json:"missing_standard_checks"`
}

// Evidence.Type is one of import|annotation|call|query|endpoint|config.
type Evidence struct {
	Type Text `json:"type"`
	Text Text `json:"text"`
}

// UnmarshalJSON also accepts a bare string, taken as the evidence text.
func (e *Evidence) UnmarshalJSON(b []byte) error {
	v, err := decodeAny(b)
	if err != nil {
		return err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		*e = Evidence{Text: Text(textOf(v))}
		return nil
	}
	*e = Evidence{Type: Text(textOf(obj["type"])), Text: Text(textOf(obj["text"]))}
	return nil
}

type HandoffTags struct {
	ClusterKeys       StringList `json:"cluster_keys"`
	RelatedFilesGuess StringList `json:"related_files_guess"`
}

// FileSummary is the structured analysis of one file. Members the model adds
// beyond the known fields are kept in Extra.
type FileSummary struct {
	File              FileHeader         `json:"file"`
	DomainSignals     DomainSignals      `json:"domain_signals"`
	FeatureCandidates []FeatureCandidate `json:"feature_candidates"`
	TechniqueSignals  TechniqueSignals   `json:"technique_signals"`
	QualitySignals    QualitySignals     `json:"quality_signals"`
	Evidence          []Evidence         `json:"evidence"`
	HandoffTags       HandoffTags        `json:"handoff_tags"`
	Extra             Extra              `json:"-"`
}

type fileSummaryAlias FileSummary

// UnmarshalJSON decodes what it can. A field type mismatch is returned after
// the rest of the summary has been filled in.
func (s *FileSummary) UnmarshalJSON(data []byte) error {
	var a fileSummaryAlias
	err := json.Unmarshal(data, &a)
	if err != nil && !isTypeDrift(err) {
		return err
	}
	*s = FileSummary(a)
	s.Extra = extraOf(data, reflect.TypeOf(a))
	return err
}

func (s FileSummary) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(fileSummaryAlias(s), s.Extra)
}

// Path returns the caller-assigned path of the summarized file.
func (s FileSummary) Path() string { return s.File.Path }

// CompactFile is the projection sent to the batch clustering prompt.
type CompactFile struct {
	Path     string      `json:"path"`
	Analysis FileSummary `json:"analysis"`
}

// Compact projects summaries to [{path, analysis}] preserving order.
func Compact(in []FileSummary) []CompactFile {
	out := make([]CompactFile, 0, len(in))
	for _, s := range in {
		out = append(out, CompactFile{Path: s.Path(), Analysis: s})
	}
	return out
}
