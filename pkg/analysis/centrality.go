package analysis

import (
	"math"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// CentralityScores holds the centrality measures of one entity.
type CentralityScores struct {
	Degree      float64 `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Eigenvector float64 `json:"eigenvector"`
}

const (
	eigenvectorIterations = 100
	eigenvectorTolerance  = 1e-6
)

// ComputeCentrality returns degree, betweenness, and eigenvector
// centrality per entity ID over the undirected relationship graph.
// Degree is normalized by n-1, betweenness by the undirected pair
// count, eigenvector to unit maximum.
func (a *Analyzer) ComputeCentrality(
	entities []common.CanonicalEntity,
	relationships []common.Relationship,
) map[string]CentralityScores {
	graph := buildEntityGraph(entities, relationships)
	n := graph.nodeCount()
	out := make(map[string]CentralityScores, n)
	if n == 0 {
		return out
	}

	betweenness := brandesBetweenness(graph)
	eigen := eigenvectorCentrality(graph)

	for i, id := range graph.ids {
		s := CentralityScores{
			Degree:      float64(len(graph.adj[i])),
			Betweenness: betweenness[i],
			Eigenvector: eigen[i],
		}
		if n > 1 {
			s.Degree /= float64(n - 1)
			s.Betweenness /= float64((n - 1) * (n - 2) / 2)
		}
		if math.IsNaN(s.Betweenness) || math.IsInf(s.Betweenness, 0) {
			s.Betweenness = 0
		}
		out[id] = s
	}
	return out
}

// brandesBetweenness computes unweighted shortest-path betweenness per
// node index (Brandes 2001, accumulation over BFS orderings).
func brandesBetweenness(g *entityGraph) []float64 {
	n := g.nodeCount()
	betweenness := make([]float64, n)

	for s := 0; s < n; s++ {
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	// Each undirected pair was counted from both endpoints.
	for i := range betweenness {
		betweenness[i] /= 2
	}
	return betweenness
}

// eigenvectorCentrality runs power iteration on the weighted adjacency
// matrix, normalized so the largest score is 1. Isolated nodes score 0.
func eigenvectorCentrality(g *entityGraph) []float64 {
	n := g.nodeCount()
	x := make([]float64, n)
	for i := range x {
		x[i] = 1
	}

	for iter := 0; iter < eigenvectorIterations; iter++ {
		next := make([]float64, n)
		for u := 0; u < n; u++ {
			for _, v := range g.adj[u] {
				next[u] += g.weights[u][v] * x[v]
			}
		}

		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return make([]float64, n)
		}

		diff := 0.0
		for i := range next {
			next[i] /= norm
			diff += math.Abs(next[i] - x[i])
		}
		x = next
		if diff < eigenvectorTolerance {
			break
		}
	}

	max := 0.0
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for i := range x {
			x[i] /= max
		}
	}
	return x
}
