package common

import "strings"

// EntityKind classifies what a raw mention refers to. Extraction assigns
// a kind to every entity; resolution never merges across kinds.
type EntityKind string

const (
	EntityKindConcept EntityKind = "CONCEPT"
	EntityKindMethod  EntityKind = "METHOD"
	EntityKindFinding EntityKind = "FINDING"
	EntityKindDataset EntityKind = "DATASET"
	EntityKindMetric  EntityKind = "METRIC"
	EntityKindOther   EntityKind = "OTHER"
)

// ParseEntityKind maps a free-form kind string from the extraction
// collaborator onto a known EntityKind. Unknown values map to OTHER.
func ParseEntityKind(s string) EntityKind {
	switch EntityKind(strings.ToUpper(strings.TrimSpace(s))) {
	case EntityKindConcept:
		return EntityKindConcept
	case EntityKindMethod:
		return EntityKindMethod
	case EntityKindFinding:
		return EntityKindFinding
	case EntityKindDataset:
		return EntityKindDataset
	case EntityKindMetric:
		return EntityKindMetric
	default:
		return EntityKindOther
	}
}

// MethodDetails holds kind-specific fields for METHOD entities.
type MethodDetails struct {
	Task         string `json:"task,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}

// FindingDetails holds kind-specific fields for FINDING entities.
type FindingDetails struct {
	Evidence string `json:"evidence,omitempty"`
	Effect   string `json:"effect,omitempty"`
}

// DatasetDetails holds kind-specific fields for DATASET entities.
type DatasetDetails struct {
	Domain string `json:"domain,omitempty"`
	Size   string `json:"size,omitempty"`
}

// MetricDetails holds kind-specific fields for METRIC entities.
type MetricDetails struct {
	Unit           string `json:"unit,omitempty"`
	HigherIsBetter bool   `json:"higher_is_better,omitempty"`
}

// KindDetails is a tagged variant keyed by EntityKind. At most one field
// is set, matching the entity's kind. It replaces the open property bag
// the extraction collaborator emits so that context scoring and merge
// logic stay statically checkable.
type KindDetails struct {
	Method  *MethodDetails  `json:"method,omitempty"`
	Finding *FindingDetails `json:"finding,omitempty"`
	Dataset *DatasetDetails `json:"dataset,omitempty"`
	Metric  *MetricDetails  `json:"metric,omitempty"`
}

// FreeText returns the detail fields as plain text for context scoring.
func (d KindDetails) FreeText() string {
	parts := make([]string, 0, 2)
	switch {
	case d.Method != nil:
		parts = append(parts, d.Method.Task, d.Method.Architecture)
	case d.Finding != nil:
		parts = append(parts, d.Finding.Evidence, d.Finding.Effect)
	case d.Dataset != nil:
		parts = append(parts, d.Dataset.Domain, d.Dataset.Size)
	case d.Metric != nil:
		parts = append(parts, d.Metric.Unit)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// RawEntity is one extracted mention of a concept as produced by the
// extraction collaborator. Raw entities are immutable once created;
// resolution only reads them and folds them into canonical entities.
type RawEntity struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Kind          EntityKind  `json:"kind"`
	Definition    string      `json:"definition,omitempty"`
	Description   string      `json:"description,omitempty"`
	SourcePaperID string      `json:"source_paper_id"`
	Embedding     []float32   `json:"embedding,omitempty"`
	Details       KindDetails `json:"details,omitempty"`
}

// ContextText concatenates the free-text parts of the entity that the
// context disambiguator scores. Deterministic for a given entity.
func (e RawEntity) ContextText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Definition, e.Description, e.Details.FreeText()} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// MergeMethod records how a raw entity ended up inside a canonical one.
type MergeMethod string

const (
	MergeMethodAuto         MergeMethod = "auto"
	MergeMethodLLMConfirmed MergeMethod = "llm-confirmed"
)

// ResolutionInfo is the per-canonical-entity resolution metadata.
type ResolutionInfo struct {
	Method     MergeMethod `json:"method,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
}

// CanonicalEntity is the deduplicated representative of one or more raw
// mentions of the same real-world concept. Two canonical entities may
// share a name only if their (Kind, ContextBucket) differ.
type CanonicalEntity struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Kind           EntityKind     `json:"kind"`
	ContextBucket  string         `json:"context_bucket"`
	Aliases        []string       `json:"aliases,omitempty"`
	SourcePaperIDs []string       `json:"source_paper_ids,omitempty"`
	RawEntityIDs   []string       `json:"raw_entity_ids,omitempty"`
	Definition     string         `json:"definition,omitempty"`
	Embedding      []float32      `json:"embedding,omitempty"`
	Resolution     ResolutionInfo `json:"resolution,omitempty"`
}

// Relationship is an edge between two entities. Before resolution the
// endpoint IDs reference raw entities; after resolution they reference
// canonical entities, and duplicates between the same canonical pair and
// type are collapsed.
type Relationship struct {
	ID          string   `json:"id"`
	SourceID    string   `json:"source_id"`
	TargetID    string   `json:"target_id"`
	Type        string   `json:"type"`
	Confidence  float64  `json:"confidence,omitempty"`
	EvidenceIDs []string `json:"evidence_ids,omitempty"`
}

// DetectionMethod identifies which clustering strategy produced a cluster.
type DetectionMethod string

const (
	DetectionMethodGraphPartition  DetectionMethod = "graph-partition"
	DetectionMethodNumericFallback DetectionMethod = "numeric-fallback"
)

// Cluster is one community of canonical entities from a single detection
// run. Member sets are disjoint across clusters within a run.
type Cluster struct {
	ID        string          `json:"id"`
	MemberIDs []string        `json:"member_ids"`
	Label     string          `json:"label"`
	Method    DetectionMethod `json:"method"`
	Centroid  []float32       `json:"centroid,omitempty"`
}

// PotentialEdge is a plausible but not-yet-observed relationship between
// entities in different clusters, ranked by embedding similarity.
type PotentialEdge struct {
	SourceID   string  `json:"source_id"`
	TargetID   string  `json:"target_id"`
	Similarity float64 `json:"similarity"`
}

// StructuralGap flags two clusters with unusually weak direct
// connectivity. Higher GapStrength means a sparser connection and a more
// interesting bridging opportunity.
type StructuralGap struct {
	ID                 string          `json:"id"`
	ClusterAID         string          `json:"cluster_a_id"`
	ClusterBID         string          `json:"cluster_b_id"`
	ClusterAEntityIDs  []string        `json:"cluster_a_entity_ids"`
	ClusterBEntityIDs  []string        `json:"cluster_b_entity_ids"`
	GapStrength        float64         `json:"gap_strength"`
	BridgeCandidateIDs []string        `json:"bridge_candidate_ids,omitempty"`
	PotentialEdges     []PotentialEdge `json:"potential_edges,omitempty"`
	Hypothesis         string          `json:"hypothesis,omitempty"`
}

// MergeRecord is the provenance trail for one applied merge.
type MergeRecord struct {
	CanonicalID   string      `json:"canonical_id"`
	CanonicalName string      `json:"canonical_name,omitempty"`
	AbsorbedIDs   []string    `json:"absorbed_ids"`
	Method        MergeMethod `json:"method"`
	Score         float64     `json:"score"`
}

// ResolutionMetrics is the run-scoped report describing how much of the
// batch was auto-resolved, LLM-assisted, or skipped.
type ResolutionMetrics struct {
	RawEntitiesExtracted       int           `json:"raw_entities_extracted"`
	EntitiesAfterResolution    int           `json:"entities_after_resolution"`
	MergesApplied              int           `json:"merges_applied"`
	CanonicalizationRate       float64       `json:"canonicalization_rate"`
	LLMPairsReviewed           int           `json:"llm_pairs_reviewed"`
	LLMPairsConfirmed          int           `json:"llm_pairs_confirmed"`
	LLMFallbacks               int           `json:"llm_fallbacks"`
	SkippedEntities            int           `json:"skipped_entities"`
	EmbeddingDimMismatches     int           `json:"embedding_dim_mismatches"`
	PotentialFalseMergeCount   int           `json:"potential_false_merge_count"`
	PotentialFalseMergeSamples []MergeRecord `json:"potential_false_merge_samples,omitempty"`
}
