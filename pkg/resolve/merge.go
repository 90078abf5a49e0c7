package resolve

import (
	"sort"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/common"
)

// unionFind groups entity indices that are transitively connected by
// accepted merge edges.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(x, y int) {
	px, py := u.find(x), u.find(y)
	if px != py {
		u.parent[px] = py
	}
}

func (u *unionFind) connected(x, y int) bool {
	return u.find(x) == u.find(y)
}

// groups returns the connected components as sorted index slices, in a
// deterministic order (by smallest member).
func (u *unionFind) groups() [][]int {
	byRoot := make(map[int][]int)
	for i := range u.parent {
		root := u.find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	out := make([][]int, 0, len(byRoot))
	for _, g := range byRoot {
		sort.Ints(g)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// acceptedMerge is one merge edge the run decided to apply, with its
// provenance.
type acceptedMerge struct {
	pair   CandidatePair
	method common.MergeMethod
}

// pickCanonicalName chooses the display name for a merged group: the
// most frequent raw name wins, ties broken by length (longer first) and
// then lexicographically for determinism.
func pickCanonicalName(group []scopedEntity) string {
	freq := make(map[string]int)
	for _, e := range group {
		freq[e.Name]++
	}
	best := ""
	for name, count := range freq {
		if best == "" {
			best = name
			continue
		}
		bc := freq[best]
		switch {
		case count > bc:
			best = name
		case count == bc && len(name) > len(best):
			best = name
		case count == bc && len(name) == len(best) && name < best:
			best = name
		}
	}
	return best
}

// buildCanonicalEntity collapses one union-find group into a canonical
// entity. Aliases keep every distinct raw spelling, source paper IDs and
// raw IDs are unioned, and the longest definition survives (it tends to
// carry the most context).
func buildCanonicalEntity(
	group []scopedEntity,
	method common.MergeMethod,
	confidence float64,
	embedDim int,
) common.CanonicalEntity {
	name := pickCanonicalName(group)

	aliasSet := make(map[string]bool)
	paperSet := make(map[string]bool)
	rawIDs := make([]string, 0, len(group))
	definition := ""
	var embedding []float32

	for _, e := range group {
		aliasSet[e.Name] = true
		if e.SourcePaperID != "" {
			paperSet[e.SourcePaperID] = true
		}
		rawIDs = append(rawIDs, e.ID)
		if len(e.Definition) > len(definition) {
			definition = e.Definition
		}
		if embedding == nil && util.SameDimension(e.Embedding, embedDim) {
			embedding = e.Embedding
		}
	}

	aliases := make([]string, 0, len(aliasSet))
	for a := range aliasSet {
		if a != name {
			aliases = append(aliases, a)
		}
	}
	sort.Strings(aliases)

	papers := make([]string, 0, len(paperSet))
	for p := range paperSet {
		papers = append(papers, p)
	}
	sort.Strings(papers)
	sort.Strings(rawIDs)

	entity := common.CanonicalEntity{
		ID:             util.MustNewID(),
		Name:           name,
		Kind:           group[0].Kind,
		ContextBucket:  group[0].Bucket,
		Aliases:        aliases,
		SourcePaperIDs: papers,
		RawEntityIDs:   rawIDs,
		Definition:     definition,
		Embedding:      embedding,
	}
	if len(group) > 1 {
		entity.Resolution = common.ResolutionInfo{
			Method:     method,
			Confidence: confidence,
		}
	}
	return entity
}
