package analysis

import (
	"math"
	"math/rand"
	"sort"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

const (
	kmeansMaxIterations = 50
	kmeansMaxK          = 8
	minClusterableNodes = 3
)

// numericCluster is one fallback cluster before labeling.
type numericCluster struct {
	memberIDs []string
	centroid  []float32
}

// clusterByEmbeddings is the numeric fallback: k-means over valid
// entity embeddings, with k chosen by a silhouette scan over a small
// range. Entities whose embedding is missing or of the wrong width are
// filtered out first. Fewer than 3 usable entities yields a
// ClusteringInsufficientDataError, which callers map to an empty list.
//
// Seeded deterministically from the input size, so the same batch
// always clusters the same way.
func clusterByEmbeddings(entities []common.CanonicalEntity, dim int) ([]numericCluster, error) {
	var valid []common.CanonicalEntity
	for _, e := range entities {
		if util.SameDimension(e.Embedding, dim) {
			valid = append(valid, e)
		}
	}
	if len(valid) < minClusterableNodes {
		return nil, &ClusteringInsufficientDataError{
			Nodes:    len(valid),
			Required: minClusterableNodes,
			Reason:   "too few valid-embedding entities",
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].ID < valid[j].ID })

	points := make([][]float32, len(valid))
	for i, e := range valid {
		points[i] = e.Embedding
	}

	maxK := util.Min(kmeansMaxK, len(valid)-1)
	bestScore := math.Inf(-1)
	var bestAssign []int
	var bestCentroids [][]float32

	for k := 2; k <= maxK; k++ {
		rng := rand.New(rand.NewSource(int64(len(valid)*31 + k)))
		assign, centroids := kmeansRun(points, k, rng)
		score := meanSilhouette(points, assign, k)
		if score > bestScore {
			bestScore = score
			bestAssign = assign
			bestCentroids = centroids
		}
	}
	logger.Debug("[Analysis] Numeric fallback clustering done",
		"entities", len(valid), "k", len(bestCentroids), "silhouette", bestScore)

	clusters := make([]numericCluster, len(bestCentroids))
	for i, e := range valid {
		c := bestAssign[i]
		clusters[c].memberIDs = append(clusters[c].memberIDs, e.ID)
	}
	for i := range clusters {
		clusters[i].centroid = bestCentroids[i]
	}

	out := clusters[:0]
	for _, c := range clusters {
		if len(c.memberIDs) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

// kmeansRun is one k-means execution with k-means++ style seeding.
func kmeansRun(points [][]float32, k int, rng *rand.Rand) ([]int, [][]float32) {
	dim := len(points[0])
	centroids := seedCentroids(points, k, rng)
	assign := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := sqDistance(p, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += float64(v)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
			}
		}
	}
	return assign, centroids
}

// seedCentroids picks initial centroids spread out over the points:
// the first uniformly, each next proportional to squared distance from
// the nearest chosen one.
func seedCentroids(points [][]float32, k int, rng *rand.Rand) [][]float32 {
	centroids := make([][]float32, 0, k)
	first := rng.Intn(len(points))
	centroids = append(centroids, cloneVector(points[first]))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sq := sqDistance(p, c); sq < d {
					d = sq
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			centroids = append(centroids, cloneVector(points[rng.Intn(len(points))]))
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := len(points) - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, cloneVector(points[pick]))
	}
	return centroids
}

// meanSilhouette scores an assignment: mean over points of
// (b - a) / max(a, b), where a is the mean intra-cluster distance and b
// the mean distance to the nearest other cluster.
func meanSilhouette(points [][]float32, assign []int, k int) float64 {
	n := len(points)
	total, counted := 0.0, 0
	for i := 0; i < n; i++ {
		var sums = make([]float64, k)
		var counts = make([]int, k)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := math.Sqrt(sqDistance(points[i], points[j]))
			sums[assign[j]] += d
			counts[assign[j]]++
		}

		own := assign[i]
		if counts[own] == 0 {
			continue
		}
		a := sums[own] / float64(counts[own])
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := sums[c] / float64(counts[c]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
			counted++
		}
	}
	if counted == 0 {
		return -1
	}
	return total / float64(counted)
}

func sqDistance(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
