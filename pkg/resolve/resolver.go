package resolve

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/go-playground/validator"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/ai"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// Resolver turns a batch of raw extracted entities into canonical
// entities and rewrites relationships onto them. A Resolver is safe to
// reuse across batches; each Resolve call is independent.
//
// A Resolver should be created using NewResolver.
type Resolver struct {
	autoMergeThreshold float64
	reviewThreshold    float64
	embeddingDim       int

	maxLLMPairChecks   int
	llmBatchSize       int
	parallelAIRequests int
	llmTimeoutSec      int
	maxRetries         int
	tokenEncoder       string

	falseMergeSampleCap int
	homonymRules        HomonymRules
	backfillEmbeddings  bool
}

// NewResolverParams defines the configuration for creating a Resolver.
//
// AutoMergeThreshold is the similarity at or above which pairs merge
// without review (default 0.92). ReviewThreshold is the lower bound of
// the LLM review band (default 0.75); pairs below it are discarded.
// EmbeddingDimensions is the expected embedding width; vectors of any
// other width are ignored for similarity and counted (default 1536).
// BackfillEmbeddings requests embeddings for entities that arrive
// without one, when an AI client is available.
type NewResolverParams struct {
	AutoMergeThreshold  float64 `validate:"omitempty,gt=0,lte=1"`
	ReviewThreshold     float64 `validate:"omitempty,gt=0,lte=1"`
	EmbeddingDimensions int     `validate:"omitempty,gt=0"`

	MaxLLMPairChecks   int `validate:"omitempty,gt=0"`
	LLMBatchSize       int `validate:"omitempty,gt=0"`
	ParallelAIRequests int `validate:"omitempty,gt=0"`
	LLMTimeoutSec      int `validate:"omitempty,gt=0"`
	MaxRetries         int `validate:"omitempty,gt=0"`
	TokenEncoder       string

	FalseMergeSampleCap int `validate:"omitempty,gt=0"`
	HomonymRules        HomonymRules
	BackfillEmbeddings  bool
}

// NewResolver creates a Resolver with the provided parameters. Zero
// values fall back to defaults; an explicit ReviewThreshold above the
// AutoMergeThreshold is rejected.
func NewResolver(params NewResolverParams) (*Resolver, error) {
	if err := validator.New().Struct(params); err != nil {
		return nil, fmt.Errorf("invalid resolver params: %w", err)
	}

	r := &Resolver{
		autoMergeThreshold:  params.AutoMergeThreshold,
		reviewThreshold:     params.ReviewThreshold,
		embeddingDim:        params.EmbeddingDimensions,
		maxLLMPairChecks:    params.MaxLLMPairChecks,
		llmBatchSize:        params.LLMBatchSize,
		parallelAIRequests:  params.ParallelAIRequests,
		llmTimeoutSec:       params.LLMTimeoutSec,
		maxRetries:          params.MaxRetries,
		tokenEncoder:        params.TokenEncoder,
		falseMergeSampleCap: params.FalseMergeSampleCap,
		homonymRules:        params.HomonymRules,
		backfillEmbeddings:  params.BackfillEmbeddings,
	}
	if r.autoMergeThreshold == 0 {
		r.autoMergeThreshold = 0.92
	}
	if r.reviewThreshold == 0 {
		r.reviewThreshold = 0.75
	}
	if r.reviewThreshold > r.autoMergeThreshold {
		return nil, fmt.Errorf(
			"review threshold %.2f exceeds auto-merge threshold %.2f",
			r.reviewThreshold, r.autoMergeThreshold,
		)
	}
	if r.embeddingDim == 0 {
		r.embeddingDim = 1536
	}
	if r.maxLLMPairChecks == 0 {
		r.maxLLMPairChecks = 200
	}
	if r.llmBatchSize == 0 {
		r.llmBatchSize = 20
	}
	if r.parallelAIRequests == 0 {
		r.parallelAIRequests = 4
	}
	if r.llmTimeoutSec == 0 {
		r.llmTimeoutSec = 30
	}
	if r.maxRetries == 0 {
		r.maxRetries = 2
	}
	if r.tokenEncoder == "" {
		r.tokenEncoder = ai.DefaultTokenEncoder
	}
	if r.falseMergeSampleCap == 0 {
		r.falseMergeSampleCap = 20
	}
	if r.homonymRules == nil {
		r.homonymRules = DefaultHomonymRules()
	}
	return r, nil
}

// ResolveResult is everything one resolution run produces.
type ResolveResult struct {
	Entities      []common.CanonicalEntity
	Relationships []common.Relationship
	MergeRecords  []common.MergeRecord
	Metrics       common.ResolutionMetrics
}

// Resolve runs the full pipeline over one batch: validate, assign
// context buckets, generate candidates per (kind, bucket) partition,
// merge, and rewrite relationships onto canonical IDs.
//
// aiClient may be nil: LLM review then degrades to the deterministic
// secondary rule and embedding backfill is skipped. Running Resolve on
// its own output produces no further merges.
func (r *Resolver) Resolve(
	ctx context.Context,
	rawEntities []common.RawEntity,
	relationships []common.Relationship,
	aiClient ai.ResolutionAIClient,
) (*ResolveResult, error) {
	metrics := common.ResolutionMetrics{RawEntitiesExtracted: len(rawEntities)}

	valid := make([]common.RawEntity, 0, len(rawEntities))
	for _, e := range rawEntities {
		if err := validateRawEntity(e); err != nil {
			logger.Warn("[Resolve] Skipping invalid raw entity", "error", err)
			metrics.SkippedEntities++
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		metrics.CanonicalizationRate = 1.0
		return &ResolveResult{
			Entities:      []common.CanonicalEntity{},
			Relationships: []common.Relationship{},
			Metrics:       metrics,
		}, nil
	}

	// Vectors of the wrong width would make cosine scores meaningless,
	// so they are dropped here and only counted.
	for i := range valid {
		if len(valid[i].Embedding) > 0 && !util.SameDimension(valid[i].Embedding, r.embeddingDim) {
			logger.Warn("[Resolve] Dropping mismatched embedding",
				"entity", valid[i].ID, "got", len(valid[i].Embedding), "want", r.embeddingDim)
			valid[i].Embedding = nil
			metrics.EmbeddingDimMismatches++
		}
	}

	if r.backfillEmbeddings && aiClient != nil {
		r.backfill(ctx, valid, aiClient)
	}

	acronyms := NewAcronymRegistry()
	for _, e := range valid {
		acronyms.Scan(e.Name)
		acronyms.Scan(e.ContextText())
	}

	entities := make([]scopedEntity, len(valid))
	for i, e := range valid {
		entities[i] = scopedEntity{
			RawEntity: e,
			Bucket:    AssignContextBucket(e, r.homonymRules),
			Index:     i,
		}
	}

	keys, partitions := buildPartitions(entities)
	var autoPairs, reviewPairs []CandidatePair
	for _, key := range keys {
		for _, p := range generateCandidates(partitions[key], acronyms, r.embeddingDim, r.reviewThreshold) {
			if p.Score >= r.autoMergeThreshold {
				autoPairs = append(autoPairs, p)
			} else {
				reviewPairs = append(reviewPairs, p)
			}
		}
	}
	logger.Debug("[Resolve] Candidate pairs generated",
		"auto", len(autoPairs), "review", len(reviewPairs), "partitions", len(keys))

	outcome := r.confirmUncertainPairs(ctx, reviewPairs, entities, aiClient)
	metrics.LLMPairsReviewed = outcome.reviewed
	metrics.LLMPairsConfirmed = len(outcome.confirmed)
	metrics.LLMFallbacks = outcome.fallbacks

	accepted := make([]acceptedMerge, 0, len(autoPairs)+len(outcome.confirmed))
	for _, p := range autoPairs {
		accepted = append(accepted, acceptedMerge{pair: p, method: common.MergeMethodAuto})
	}
	for _, p := range outcome.confirmed {
		accepted = append(accepted, acceptedMerge{pair: p, method: common.MergeMethodLLMConfirmed})
	}

	uf := newUnionFind(len(entities))
	for _, m := range accepted {
		uf.union(m.pair.A, m.pair.B)
	}

	// Per-group provenance: a group is llm-confirmed as soon as any of
	// its edges needed review, and carries the weakest edge score.
	groupMethod := make(map[int]common.MergeMethod)
	groupScore := make(map[int]float64)
	for _, m := range accepted {
		root := uf.find(m.pair.A)
		if m.method == common.MergeMethodLLMConfirmed {
			groupMethod[root] = common.MergeMethodLLMConfirmed
		} else if _, ok := groupMethod[root]; !ok {
			groupMethod[root] = common.MergeMethodAuto
		}
		if s, ok := groupScore[root]; !ok || m.pair.Score < s {
			groupScore[root] = m.pair.Score
		}
	}

	canonical := make([]common.CanonicalEntity, 0, len(entities))
	records := make([]common.MergeRecord, 0)
	idMap := make(map[string]string, len(entities))
	for _, group := range uf.groups() {
		members := make([]scopedEntity, len(group))
		for i, idx := range group {
			members[i] = entities[idx]
		}
		root := uf.find(group[0])
		entity := buildCanonicalEntity(members, groupMethod[root], groupScore[root], r.embeddingDim)
		canonical = append(canonical, entity)
		for _, m := range members {
			idMap[m.ID] = entity.ID
		}
		if len(members) > 1 {
			metrics.MergesApplied += len(members) - 1
			records = append(records, common.MergeRecord{
				CanonicalID:   entity.ID,
				CanonicalName: entity.Name,
				AbsorbedIDs:   entity.RawEntityIDs,
				Method:        groupMethod[root],
				Score:         groupScore[root],
			})
		}
	}

	metrics.EntitiesAfterResolution = len(canonical)
	metrics.CanonicalizationRate = float64(len(canonical)) / float64(metrics.RawEntitiesExtracted)
	r.sampleFalseMergeCandidates(&metrics, records)

	rewritten := rewriteRelationships(relationships, idMap)

	logger.Info("[Resolve] Batch resolved",
		"raw", metrics.RawEntitiesExtracted,
		"canonical", metrics.EntitiesAfterResolution,
		"merges", metrics.MergesApplied,
		"llmReviewed", metrics.LLMPairsReviewed,
		"skipped", metrics.SkippedEntities)

	return &ResolveResult{
		Entities:      canonical,
		Relationships: rewritten,
		MergeRecords:  records,
		Metrics:       metrics,
	}, nil
}

// backfill fills missing embeddings in place, best effort. Failures
// leave the entity without a vector; deterministic matching still works.
func (r *Resolver) backfill(
	ctx context.Context,
	entities []common.RawEntity,
	client ai.ResolutionAIClient,
) {
	var missing []int
	var inputs [][]byte
	for i, e := range entities {
		if len(e.Embedding) == 0 {
			missing = append(missing, i)
			inputs = append(inputs, []byte(strings.TrimSpace(e.Name+" "+e.ContextText())))
		}
	}
	if len(missing) == 0 {
		return
	}

	vectors, err := client.GenerateEmbeddings(ctx, inputs)
	if err != nil || len(vectors) != len(missing) {
		logger.Warn("[Resolve] Embedding backfill failed", "entities", len(missing), "error", err)
		return
	}
	for i, idx := range missing {
		if util.SameDimension(vectors[i], r.embeddingDim) {
			entities[idx].Embedding = vectors[i]
		}
	}
	logger.Debug("[Resolve] Embeddings backfilled", "entities", len(missing))
}

// sampleFalseMergeCandidates keeps a bounded uniform sample of the
// LLM-confirmed merges of this run for manual spot checking. Seeded so
// reruns over the same batch report the same sample.
func (r *Resolver) sampleFalseMergeCandidates(
	metrics *common.ResolutionMetrics,
	records []common.MergeRecord,
) {
	var risky []common.MergeRecord
	for _, rec := range records {
		if rec.Method == common.MergeMethodLLMConfirmed {
			risky = append(risky, rec)
		}
	}
	metrics.PotentialFalseMergeCount = len(risky)
	if len(risky) == 0 {
		return
	}

	rng := rand.New(rand.NewSource(int64(len(risky))))
	sample := make([]common.MergeRecord, 0, r.falseMergeSampleCap)
	for i, rec := range risky {
		if len(sample) < r.falseMergeSampleCap {
			sample = append(sample, rec)
			continue
		}
		if j := rng.Intn(i + 1); j < r.falseMergeSampleCap {
			sample[j] = rec
		}
	}
	metrics.PotentialFalseMergeSamples = sample
}

// rewriteRelationships maps endpoints onto canonical IDs, drops
// self-loops created by merging, and collapses duplicate edges between
// the same unordered canonical pair and type. Evidence IDs are unioned
// and confidence is averaged across collapsed duplicates.
func rewriteRelationships(
	relationships []common.Relationship,
	idMap map[string]string,
) []common.Relationship {
	type edgeKey struct {
		lo, hi, typ string
	}
	type edgeAgg struct {
		rel        common.Relationship
		confidence float64
		count      int
		evidence   map[string]bool
	}

	agg := make(map[edgeKey]*edgeAgg)
	order := make([]edgeKey, 0, len(relationships))

	for _, rel := range relationships {
		src, okS := idMap[rel.SourceID]
		dst, okT := idMap[rel.TargetID]
		if !okS || !okT {
			logger.Debug("[Resolve] Dropping relationship with unknown endpoint", "id", rel.ID)
			continue
		}
		if src == dst {
			continue
		}

		lo, hi := src, dst
		if hi < lo {
			lo, hi = hi, lo
		}
		key := edgeKey{lo: lo, hi: hi, typ: rel.Type}

		a, ok := agg[key]
		if !ok {
			a = &edgeAgg{
				rel: common.Relationship{
					ID:       rel.ID,
					SourceID: src,
					TargetID: dst,
					Type:     rel.Type,
				},
				evidence: make(map[string]bool),
			}
			agg[key] = a
			order = append(order, key)
		}
		a.confidence += rel.Confidence
		a.count++
		for _, ev := range rel.EvidenceIDs {
			a.evidence[ev] = true
		}
	}

	out := make([]common.Relationship, 0, len(order))
	for _, key := range order {
		a := agg[key]
		rel := a.rel
		rel.Confidence = a.confidence / float64(a.count)
		if len(a.evidence) > 0 {
			evs := make([]string, 0, len(a.evidence))
			for ev := range a.evidence {
				evs = append(evs, ev)
			}
			sort.Strings(evs)
			rel.EvidenceIDs = evs
		}
		out = append(out, rel)
	}
	return out
}
