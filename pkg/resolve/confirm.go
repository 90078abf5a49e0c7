package resolve

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/ai"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// confirmOutcome aggregates the results of LLM review for one run.
type confirmOutcome struct {
	confirmed []CandidatePair
	reviewed  int
	fallbacks int
}

// confirmUncertainPairs routes pairs in the review band through batched
// LLM confirmation. Batches run concurrently under a cap; each batch has
// a per-call timeout and one retry, after which the batch degrades to
// the deterministic secondary rule (exact normalized-name equality)
// instead of blocking or failing the run. LLM errors never escape this
// function.
func (r *Resolver) confirmUncertainPairs(
	ctx context.Context,
	reviewPairs []CandidatePair,
	entities []scopedEntity,
	client ai.ResolutionAIClient,
) confirmOutcome {
	out := confirmOutcome{}
	if len(reviewPairs) == 0 {
		return out
	}

	// Highest-scoring pairs first, so the global cap spends its budget
	// on the most promising candidates.
	sorted := make([]CandidatePair, len(reviewPairs))
	copy(sorted, reviewPairs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	if len(sorted) > r.maxLLMPairChecks {
		logger.Debug("[Resolve] Capping LLM review pairs", "total", len(sorted), "cap", r.maxLLMPairChecks)
		sorted = sorted[:r.maxLLMPairChecks]
	}
	out.reviewed = len(sorted)

	if client == nil {
		logger.Warn("[Resolve] No AI client configured, using deterministic fallback for review pairs", "pairs", len(sorted))
		out.confirmed = deterministicFallback(sorted, entities)
		out.fallbacks = 1
		return out
	}

	batches := make([][]CandidatePair, 0, len(sorted)/r.llmBatchSize+1)
	for i := 0; i < len(sorted); i += r.llmBatchSize {
		batches = append(batches, sorted[i:util.Min(i+r.llmBatchSize, len(sorted))])
	}

	var mu sync.Mutex
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallelAIRequests)

	for _, batch := range batches {
		b := batch
		eg.Go(func() error {
			confirmed, fellBack := r.confirmBatch(gCtx, b, entities, client)
			mu.Lock()
			defer mu.Unlock()
			out.confirmed = append(out.confirmed, confirmed...)
			if fellBack {
				out.fallbacks++
			}
			return nil
		})
	}
	// Workers only return nil; LLM failures degrade inside confirmBatch.
	_ = eg.Wait()

	return out
}

// confirmBatch sends one batch to the model and returns the confirmed
// pairs. On typed LLM failure the batch falls back to the deterministic
// secondary rule and fellBack is true.
func (r *Resolver) confirmBatch(
	ctx context.Context,
	batch []CandidatePair,
	entities []scopedEntity,
	client ai.ResolutionAIClient,
) (confirmed []CandidatePair, fellBack bool) {
	pairs := make([]ai.MergePair, len(batch))
	index := make(map[string]CandidatePair, len(batch))
	for i, p := range batch {
		id := fmt.Sprintf("p-%d", i)
		a, b := entities[p.A], entities[p.B]
		pairs[i] = ai.MergePair{
			ID:          id,
			NameA:       a.Name,
			DefinitionA: truncate(a.ContextText(), 200),
			NameB:       b.Name,
			DefinitionB: truncate(b.ContextText(), 200),
		}
		index[id] = p
	}

	res, err := ai.ConfirmMergePairs(
		ctx, pairs, client,
		time.Duration(r.llmTimeoutSec)*time.Second,
		r.maxRetries,
		r.tokenEncoder,
	)
	if err != nil {
		if ai.IsLLMFailure(err) {
			logger.Warn("[Resolve] LLM confirmation failed, applying deterministic fallback", "pairs", len(batch), "error", err)
			return deterministicFallback(batch, entities), true
		}
		// Malformed batches and rate limits are also non-fatal here, but
		// they are worth louder logging since they indicate
		// misconfiguration rather than transient provider trouble.
		logger.Error("[Resolve] LLM confirmation error, applying deterministic fallback", "pairs", len(batch), "error", err)
		return deterministicFallback(batch, entities), true
	}

	for _, decision := range res.Decisions {
		pair, ok := index[decision.PairID]
		if !ok {
			continue
		}
		if decision.SameConcept && decision.Confidence >= 0.5 {
			pair.Score = decision.Confidence
			confirmed = append(confirmed, pair)
		}
	}
	return confirmed, false
}

// deterministicFallback is the secondary rule applied when LLM review is
// unavailable: only pairs whose normalized names are identical are
// merged. Conservative on purpose; uncertain embedding pairs stay split.
func deterministicFallback(batch []CandidatePair, entities []scopedEntity) []CandidatePair {
	var confirmed []CandidatePair
	for _, p := range batch {
		if CompareKey(entities[p.A].Name) == CompareKey(entities[p.B].Name) {
			confirmed = append(confirmed, p)
		}
	}
	return confirmed
}

// truncate cuts s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
