package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/ai"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// AnalyzeGaps flags cluster pairs whose inter-cluster edge density
// falls below the configured threshold. Each gap carries bridge
// candidates, ranked ghost edges, and optionally a best-effort LLM
// hypothesis; a failed hypothesis call leaves the gap record intact.
func (a *Analyzer) AnalyzeGaps(
	ctx context.Context,
	entities []common.CanonicalEntity,
	relationships []common.Relationship,
	clusters []common.Cluster,
	aiClient ai.ResolutionAIClient,
) ([]common.StructuralGap, error) {
	if len(clusters) < 2 {
		return []common.StructuralGap{}, nil
	}

	byID := make(map[string]common.CanonicalEntity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	graph := buildEntityGraph(entities, relationships)

	var gaps []common.StructuralGap
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			ca, cb := clusters[i], clusters[j]
			density := a.interClusterDensity(graph, ca.MemberIDs, cb.MemberIDs)
			if density >= a.gapDensityThreshold {
				continue
			}

			gap := common.StructuralGap{
				ID:                 util.MustNewID(),
				ClusterAID:         ca.ID,
				ClusterBID:         cb.ID,
				ClusterAEntityIDs:  ca.MemberIDs,
				ClusterBEntityIDs:  cb.MemberIDs,
				GapStrength:        1 - density/a.gapDensityThreshold,
				BridgeCandidateIDs: bridgeCandidates(graph, ca.MemberIDs, cb.MemberIDs),
				PotentialEdges:     a.ghostEdges(graph, byID, ca.MemberIDs, cb.MemberIDs),
			}
			if a.generateHypotheses && aiClient != nil {
				gap.Hypothesis = a.bridgeHypothesis(ctx, gap, byID, ca, cb, aiClient)
			}
			gaps = append(gaps, gap)
		}
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i].GapStrength > gaps[j].GapStrength })
	logger.Info("[Analysis] Structural gaps flagged", "clusterPairs", len(clusters)*(len(clusters)-1)/2, "gaps", len(gaps))
	return gaps, nil
}

// interClusterDensity is the ratio of observed cross-cluster edges to
// the maximum possible between the two member sets.
func (a *Analyzer) interClusterDensity(graph *entityGraph, membersA, membersB []string) float64 {
	possible := len(membersA) * len(membersB)
	if possible == 0 {
		return 0
	}
	edges := 0
	for _, ida := range membersA {
		for _, idb := range membersB {
			if graph.hasEdge(ida, idb) {
				edges++
			}
		}
	}
	return float64(edges) / float64(possible)
}

// bridgeCandidates lists nodes with at least one edge into each of the
// two clusters, sorted for determinism.
func bridgeCandidates(graph *entityGraph, membersA, membersB []string) []string {
	inA := make(map[string]bool, len(membersA))
	for _, id := range membersA {
		inA[id] = true
	}
	inB := make(map[string]bool, len(membersB))
	for _, id := range membersB {
		inB[id] = true
	}

	var out []string
	for u, id := range graph.ids {
		touchesA, touchesB := false, false
		for _, v := range graph.adj[u] {
			if inA[graph.ids[v]] {
				touchesA = true
			}
			if inB[graph.ids[v]] {
				touchesB = true
			}
		}
		if touchesA && touchesB {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// ghostEdges ranks cross-cluster pairs without a real relationship by
// embedding cosine similarity and keeps the top-k.
func (a *Analyzer) ghostEdges(
	graph *entityGraph,
	byID map[string]common.CanonicalEntity,
	membersA, membersB []string,
) []common.PotentialEdge {
	var edges []common.PotentialEdge
	for _, ida := range membersA {
		ea, ok := byID[ida]
		if !ok || !util.SameDimension(ea.Embedding, a.embeddingDim) {
			continue
		}
		for _, idb := range membersB {
			eb, ok := byID[idb]
			if !ok || !util.SameDimension(eb.Embedding, a.embeddingDim) {
				continue
			}
			if graph.hasEdge(ida, idb) {
				continue
			}
			edges = append(edges, common.PotentialEdge{
				SourceID:   ida,
				TargetID:   idb,
				Similarity: util.CosineSimilarity(ea.Embedding, eb.Embedding),
			})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Similarity != edges[j].Similarity {
			return edges[i].Similarity > edges[j].Similarity
		}
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		return edges[i].TargetID < edges[j].TargetID
	})
	if len(edges) > a.ghostEdgeTopK {
		edges = edges[:a.ghostEdgeTopK]
	}
	return edges
}

// bridgeHypothesis asks the model to phrase a research question for one
// gap. Best effort; an empty string means the call failed.
func (a *Analyzer) bridgeHypothesis(
	ctx context.Context,
	gap common.StructuralGap,
	byID map[string]common.CanonicalEntity,
	ca, cb common.Cluster,
	aiClient ai.ResolutionAIClient,
) string {
	names := func(ids []string, limit int) []string {
		out := make([]string, 0, limit)
		for _, id := range ids {
			if e, ok := byID[id]; ok {
				out = append(out, e.Name)
			}
			if len(out) == limit {
				break
			}
		}
		return out
	}

	hypothesis, err := ai.CallBridgeHypothesisAI(
		ctx,
		ca.Label, names(gap.ClusterAEntityIDs, maxLabelExemplars),
		cb.Label, names(gap.ClusterBEntityIDs, maxLabelExemplars),
		names(gap.BridgeCandidateIDs, maxLabelExemplars),
		aiClient,
		time.Duration(a.llmTimeoutSec)*time.Second,
		a.maxRetries,
	)
	if err != nil {
		logger.Warn("[Analysis] Bridge hypothesis failed, keeping gap without one",
			"gap", gap.ID, "error", err)
		return ""
	}
	return hypothesis
}
