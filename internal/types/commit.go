package types

import (
	"encoding/json"
	"reflect"
)

// Commits ------------------------------------------------------------------------

type Commit struct {
	Message    string `json:"message"`
	AuthorName string `json:"author_name"`
	AuthorDate string `json:"author_date"`
}

// CommitMetadata is the exported commit history of one repository.
type CommitMetadata struct {
	Repository   string   `json:"repository"`
	GeneratedAt  string   `json:"generated_at"`
	TotalCommits int      `json:"total_commits"`
	Commits      []Commit `json:"commits"`
}

// CommitSample is the compact view sent to the commit-style prompt.
type CommitSample struct {
	TotalCommits   int      `json:"total_commits"`
	Authors        []string `json:"authors"`
	SampleMessages []string `json:"sample_messages"`
}

type CollaborationSignals struct {
	RulesPresence       Text       `json:"rules_presence"`
	RulesEvidence       StringList `json:"rules_evidence"`
	CoordinationSignals StringList `json:"coordination_signals"`
}

type CommitStyleResult struct {
	CollaborationType    Text                 `json:"collaboration_type"`
	CollaborationSignals CollaborationSignals `json:"collaboration_signals"`
	Extra                Extra                `json:"-"`
}

type commitStyleAlias CommitStyleResult

func (r *CommitStyleResult) UnmarshalJSON(data []byte) error {
	var a commitStyleAlias
	err := json.Unmarshal(data, &a)
	if err != nil && !isTypeDrift(err) {
		return err
	}
	*r = CommitStyleResult(a)
	r.Extra = extraOf(data, reflect.TypeOf(a))
	return err
}

func (r CommitStyleResult) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(commitStyleAlias(r), r.Extra)
}
