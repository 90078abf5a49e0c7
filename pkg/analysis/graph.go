package analysis

import (
	"sort"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// entityGraph is the undirected weighted view of the canonical graph
// that clustering and centrality operate on. Node order is the sorted
// entity ID order, so every traversal over it is deterministic.
type entityGraph struct {
	ids     []string
	index   map[string]int
	adj     [][]int
	weights []map[int]float64
	degree  []float64 // weighted degree
	total   float64   // sum of all edge weights
}

// buildEntityGraph collapses the relationship list into an undirected
// weighted graph. Parallel edges between the same pair add up; edges
// with an endpoint outside the entity set are ignored.
func buildEntityGraph(entities []common.CanonicalEntity, relationships []common.Relationship) *entityGraph {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	g := &entityGraph{
		ids:     ids,
		index:   index,
		adj:     make([][]int, len(ids)),
		weights: make([]map[int]float64, len(ids)),
		degree:  make([]float64, len(ids)),
	}
	for i := range g.weights {
		g.weights[i] = make(map[int]float64)
	}

	for _, rel := range relationships {
		u, okU := index[rel.SourceID]
		v, okV := index[rel.TargetID]
		if !okU || !okV || u == v {
			continue
		}
		w := rel.Confidence
		if w <= 0 {
			w = 1
		}
		if _, seen := g.weights[u][v]; !seen {
			g.adj[u] = append(g.adj[u], v)
			g.adj[v] = append(g.adj[v], u)
		}
		g.weights[u][v] += w
		g.weights[v][u] += w
		g.degree[u] += w
		g.degree[v] += w
		g.total += w
	}

	for i := range g.adj {
		sort.Ints(g.adj[i])
	}
	return g
}

func (g *entityGraph) nodeCount() int { return len(g.ids) }

func (g *entityGraph) edgeCount() int {
	n := 0
	for i := range g.adj {
		n += len(g.adj[i])
	}
	return n / 2
}

// hasEdge reports whether an undirected edge exists between two entity IDs.
func (g *entityGraph) hasEdge(idA, idB string) bool {
	u, okU := g.index[idA]
	v, okV := g.index[idB]
	if !okU || !okV {
		return false
	}
	_, ok := g.weights[u][v]
	return ok
}

// partitionByModularity runs greedy modularity optimization by local
// moving: every node starts in its own community and repeatedly moves to
// the neighboring community with the best modularity gain until a full
// sweep makes no move. Node sweeps run in sorted ID order and ties keep
// the current community, so the partition is deterministic.
func (g *entityGraph) partitionByModularity(maxSweeps int) []int {
	n := g.nodeCount()
	community := make([]int, n)
	for i := range community {
		community[i] = i
	}
	if g.total == 0 {
		return community
	}

	// Sum of weighted degrees per community.
	commDegree := make([]float64, n)
	copy(commDegree, g.degree)

	for sweep := 0; sweep < maxSweeps; sweep++ {
		moved := 0
		for u := 0; u < n; u++ {
			if len(g.adj[u]) == 0 {
				continue
			}
			current := community[u]

			// Edge weight from u into each neighboring community.
			into := make(map[int]float64)
			for _, v := range g.adj[u] {
				into[community[v]] += g.weights[u][v]
			}

			commDegree[current] -= g.degree[u]

			bestComm := current
			bestGain := into[current] - g.degree[u]*commDegree[current]/(2*g.total)

			// Deterministic candidate order.
			cands := make([]int, 0, len(into))
			for c := range into {
				cands = append(cands, c)
			}
			sort.Ints(cands)
			for _, c := range cands {
				if c == current {
					continue
				}
				gain := into[c] - g.degree[u]*commDegree[c]/(2*g.total)
				if gain > bestGain {
					bestGain = gain
					bestComm = c
				}
			}

			commDegree[bestComm] += g.degree[u]
			if bestComm != current {
				community[u] = bestComm
				moved++
			}
		}
		if moved == 0 {
			break
		}
	}

	return normalizeCommunities(community)
}

// normalizeCommunities renumbers community labels densely in order of
// first appearance.
func normalizeCommunities(community []int) []int {
	next := 0
	remap := make(map[int]int)
	out := make([]int, len(community))
	for i, c := range community {
		if _, ok := remap[c]; !ok {
			remap[c] = next
			next++
		}
		out[i] = remap[c]
	}
	return out
}
