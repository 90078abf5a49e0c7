package analysis

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/ai"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// protoCluster is a detected member set before labeling.
type protoCluster struct {
	memberIDs []string
	centroid  []float32
	method    common.DetectionMethod
}

// clusterStrategy is one entry of the ordered detection chain. The
// first strategy to return clusters wins; a strategy signals "not
// applicable" by returning an error.
type clusterStrategy struct {
	name string
	run  func() ([]protoCluster, error)
}

// DetectCommunities partitions the canonical graph into clusters and
// labels them. Strategy order: modularity partition over the
// relationship graph, then k-means over embeddings. Insufficient data
// yields an empty list, never an error; aiClient may be nil, in which
// case labels come from the keyword fallback.
func (a *Analyzer) DetectCommunities(
	ctx context.Context,
	entities []common.CanonicalEntity,
	relationships []common.Relationship,
	aiClient ai.ResolutionAIClient,
) ([]common.Cluster, error) {
	byID := make(map[string]common.CanonicalEntity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	graph := buildEntityGraph(entities, relationships)

	strategies := []clusterStrategy{
		{name: "graph-partition", run: func() ([]protoCluster, error) {
			return a.partitionClusters(graph, byID)
		}},
		{name: "numeric-fallback", run: func() ([]protoCluster, error) {
			clusters, err := clusterByEmbeddings(entities, a.embeddingDim)
			if err != nil {
				return nil, err
			}
			out := make([]protoCluster, len(clusters))
			for i, c := range clusters {
				out[i] = protoCluster{
					memberIDs: c.memberIDs,
					centroid:  c.centroid,
					method:    common.DetectionMethodNumericFallback,
				}
			}
			return out, nil
		}},
	}

	var protos []protoCluster
	for _, s := range strategies {
		clusters, err := s.run()
		if err != nil {
			logger.Debug("[Analysis] Detection strategy not applicable", "strategy", s.name, "error", err)
			continue
		}
		logger.Info("[Analysis] Communities detected", "strategy", s.name, "clusters", len(clusters))
		protos = clusters
		break
	}
	if len(protos) == 0 {
		logger.Warn("[Analysis] No detection strategy produced clusters", "entities", len(entities))
		return []common.Cluster{}, nil
	}

	return a.labelClusters(ctx, protos, byID, aiClient), nil
}

// partitionClusters runs the modularity strategy. Preconditions: at
// least 3 nodes and a non-trivial edge set. A partition that leaves
// every node alone counts as a failure so the numeric fallback can try.
func (a *Analyzer) partitionClusters(
	graph *entityGraph,
	byID map[string]common.CanonicalEntity,
) ([]protoCluster, error) {
	if graph.nodeCount() < minClusterableNodes {
		return nil, &ClusteringInsufficientDataError{
			Nodes:    graph.nodeCount(),
			Required: minClusterableNodes,
			Reason:   "too few graph nodes",
		}
	}
	if graph.edgeCount() < 2 {
		return nil, &ClusteringInsufficientDataError{
			Nodes:    graph.nodeCount(),
			Required: minClusterableNodes,
			Reason:   "edge set too sparse",
		}
	}

	community := graph.partitionByModularity(a.modularitySweeps)

	members := make(map[int][]string)
	for i, c := range community {
		members[c] = append(members[c], graph.ids[i])
	}

	var protos []protoCluster
	for c := 0; c < len(community); c++ {
		ids, ok := members[c]
		if !ok || len(ids) < 2 {
			continue
		}
		protos = append(protos, protoCluster{
			memberIDs: ids,
			centroid:  memberCentroid(ids, byID, a.embeddingDim),
			method:    common.DetectionMethodGraphPartition,
		})
	}
	if len(protos) == 0 {
		return nil, &ClusteringInsufficientDataError{
			Nodes:    graph.nodeCount(),
			Required: minClusterableNodes,
			Reason:   "partition produced only singletons",
		}
	}
	return protos, nil
}

// labelClusters assigns IDs and labels. Label calls run concurrently
// under the AI request cap; each falls back deterministically on its
// own, so the group never fails.
func (a *Analyzer) labelClusters(
	ctx context.Context,
	protos []protoCluster,
	byID map[string]common.CanonicalEntity,
	aiClient ai.ResolutionAIClient,
) []common.Cluster {
	clusters := make([]common.Cluster, len(protos))
	var mu sync.Mutex
	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.parallelAIRequests)

	for i, p := range protos {
		i, p := i, p
		eg.Go(func() error {
			members := make([]common.CanonicalEntity, 0, len(p.memberIDs))
			for _, id := range p.memberIDs {
				if e, ok := byID[id]; ok {
					members = append(members, e)
				}
			}
			label := a.labelCluster(gCtx, members, aiClient)

			mu.Lock()
			defer mu.Unlock()
			clusters[i] = common.Cluster{
				ID:        util.MustNewID(),
				MemberIDs: p.memberIDs,
				Label:     label,
				Method:    p.method,
				Centroid:  p.centroid,
			}
			return nil
		})
	}
	_ = eg.Wait()
	return clusters
}

// memberCentroid is the mean of the members' valid embeddings, or nil
// when none are usable.
func memberCentroid(ids []string, byID map[string]common.CanonicalEntity, dim int) []float32 {
	sums := make([]float64, dim)
	count := 0
	for _, id := range ids {
		e, ok := byID[id]
		if !ok || !util.SameDimension(e.Embedding, dim) {
			continue
		}
		for d, v := range e.Embedding {
			sums[d] += float64(v)
		}
		count++
	}
	if count == 0 {
		return nil
	}
	out := make([]float32, dim)
	for d := range sums {
		out[d] = float32(sums[d] / float64(count))
	}
	return out
}
