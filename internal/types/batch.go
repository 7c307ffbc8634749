package types

import (
	"encoding/json"
	"reflect"
)

// Batch --------------------------------------------------------------------------

// Batch is an ordered group of file summaries. ID is 1-based.
type Batch struct {
	ID        int           `json:"batch_id"`
	Summaries []FileSummary `json:"summaries"`
}

type FeatureCluster struct {
	ClusterName           Text       `json:"cluster_name"`
	DomainTags            StringList `json:"domain_tags"`
	Responsibilities      StringList `json:"responsibilities"`
	ImplementationSignals StringList `json:"implementation_signals"`
	RelatedFiles          StringList `json:"related_files"`
	Evidence              StringList `json:"evidence"`
	Confidence            Confidence `json:"confidence"`
	RisksOrUnknowns       StringList `json:"risks_or_unknowns"`
}

// BatchSemanticSummary is the clustering result for one batch. BatchID and
// MemberFiles are always assigned by the caller; MemberFiles lists the paths
// of the summaries the batch was built from, in batch order.
type BatchSemanticSummary struct {
	BatchID              int              `json:"batch_id"`
	MemberFiles          []string         `json:"member_files,omitempty"`
	BatchMixtureFlag     Flag             `json:"batch_mixture_flag"`
	Languages            StringList       `json:"languages"`
	Technologies         StringList       `json:"technologies"`
	FeatureClusters      []FeatureCluster `json:"feature_clusters"`
	SuggestedClusterKeys StringList       `json:"suggested_cluster_keys"`
	Extra                Extra            `json:"-"`
}

// RelatedFiles returns every file path referenced by the batch clusters.
func (b BatchSemanticSummary) RelatedFiles() []string {
	var out []string
	for _, c := range b.FeatureClusters {
		out = append(out, c.RelatedFiles...)
	}
	return out
}

type batchSummaryAlias BatchSemanticSummary

// UnmarshalJSON tolerates a batch_id or member_files of any type; the caller
// overwrites both. Other field type mismatches are returned after the rest of
// the summary has been filled in.
func (b *BatchSemanticSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		batchSummaryAlias
		BatchID     json.RawMessage `json:"batch_id"`
		MemberFiles json.RawMessage `json:"member_files"`
	}
	err := json.Unmarshal(data, &raw)
	if err != nil && !isTypeDrift(err) {
		return err
	}
	*b = BatchSemanticSummary(raw.batchSummaryAlias)
	var id int
	if len(raw.BatchID) > 0 && json.Unmarshal(raw.BatchID, &id) == nil {
		b.BatchID = id
	}
	var members []string
	if len(raw.MemberFiles) > 0 && json.Unmarshal(raw.MemberFiles, &members) == nil {
		b.MemberFiles = members
	}
	b.Extra = extraOf(data, reflect.TypeOf(BatchSemanticSummary{}))
	return err
}

func (b BatchSemanticSummary) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(batchSummaryAlias(b), b.Extra)
}
