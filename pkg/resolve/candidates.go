package resolve

import (
	"sort"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/common"
)

// PartitionKey scopes candidate generation. Entities in different
// partitions are never compared, which is what keeps homonyms with
// different context buckets apart.
type PartitionKey struct {
	Kind   common.EntityKind
	Bucket string
}

// scopedEntity pairs a raw entity with its assigned context bucket and
// its index into the run's entity slice.
type scopedEntity struct {
	common.RawEntity
	Bucket string
	Index  int
}

// MatchReason says why a candidate pair was proposed.
type MatchReason string

const (
	MatchExactName MatchReason = "exact-name"
	MatchAcronym   MatchReason = "acronym"
	MatchEmbedding MatchReason = "embedding"
)

// CandidatePair is an unordered pair of entities likely to be the same
// concept, with a similarity score in [0, 1].
type CandidatePair struct {
	A      int // index into the run's entity slice
	B      int
	Score  float64
	Reason MatchReason
}

// buildPartitions groups scoped entities by (kind, bucket). Partition
// iteration order is made deterministic by sorting keys.
func buildPartitions(entities []scopedEntity) ([]PartitionKey, map[PartitionKey][]scopedEntity) {
	parts := make(map[PartitionKey][]scopedEntity)
	for _, e := range entities {
		key := PartitionKey{Kind: e.Kind, Bucket: e.Bucket}
		parts[key] = append(parts[key], e)
	}

	keys := make([]PartitionKey, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Bucket < keys[j].Bucket
	})
	return keys, parts
}

// generateCandidates enumerates pairs within one partition and scores
// them. Exact compare-key matches and registered acronym matches score
// 1.0; otherwise the score is embedding cosine similarity. Entities with
// a missing or dimension-mismatched embedding are excluded from the
// embedding comparison only; they still match deterministically. Pairs
// scoring below minScore are dropped.
//
// Enumeration is quadratic in the partition size, which type+context
// scoping keeps small relative to the whole batch.
func generateCandidates(
	partition []scopedEntity,
	acronyms *AcronymRegistry,
	embedDim int,
	minScore float64,
) []CandidatePair {
	keysCache := make([]string, len(partition))
	for i, e := range partition {
		keysCache[i] = CompareKey(e.Name)
	}

	var pairs []CandidatePair
	for i := 0; i < len(partition); i++ {
		for j := i + 1; j < len(partition); j++ {
			a, b := partition[i], partition[j]
			keyA, keyB := keysCache[i], keysCache[j]

			switch {
			case keyA != "" && keyA == keyB:
				pairs = append(pairs, CandidatePair{
					A: a.Index, B: b.Index, Score: 1.0, Reason: MatchExactName,
				})
			case acronyms.Match(keyA, keyB):
				pairs = append(pairs, CandidatePair{
					A: a.Index, B: b.Index, Score: 1.0, Reason: MatchAcronym,
				})
			case util.SameDimension(a.Embedding, embedDim) && util.SameDimension(b.Embedding, embedDim):
				score := util.CosineSimilarity(a.Embedding, b.Embedding)
				if score >= minScore {
					pairs = append(pairs, CandidatePair{
						A: a.Index, B: b.Index, Score: score, Reason: MatchEmbedding,
					})
				}
			}
		}
	}
	return pairs
}
