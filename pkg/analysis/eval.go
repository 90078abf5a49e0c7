package analysis

import "github.com/lacuna-ai/lacuna/pkg/common"

// GapMatchThreshold is the minimum Jaccard similarity between a
// detected gap's concept-id set and a ground-truth set for the two to
// count as the same gap.
const GapMatchThreshold = 0.3

// GapEvalResult reports detection quality against a ground-truth gap list.
type GapEvalResult struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// EvaluateGaps matches detected gaps against ground-truth concept-id
// sets by Jaccard similarity. Each truth set matches at most one
// detected gap; detected gaps matching no truth are false positives,
// unmatched truths are false negatives.
func EvaluateGaps(detected []common.StructuralGap, truth [][]string) GapEvalResult {
	res := GapEvalResult{}

	detectedSets := make([]map[string]bool, len(detected))
	for i, g := range detected {
		set := make(map[string]bool, len(g.ClusterAEntityIDs)+len(g.ClusterBEntityIDs))
		for _, id := range g.ClusterAEntityIDs {
			set[id] = true
		}
		for _, id := range g.ClusterBEntityIDs {
			set[id] = true
		}
		detectedSets[i] = set
	}

	truthUsed := make([]bool, len(truth))
	for _, set := range detectedSets {
		matched := false
		for t, ids := range truth {
			if truthUsed[t] {
				continue
			}
			if jaccard(set, ids) >= GapMatchThreshold {
				truthUsed[t] = true
				matched = true
				break
			}
		}
		if matched {
			res.TruePositives++
		} else {
			res.FalsePositives++
		}
	}
	for _, used := range truthUsed {
		if !used {
			res.FalseNegatives++
		}
	}

	if res.TruePositives+res.FalsePositives > 0 {
		res.Precision = float64(res.TruePositives) / float64(res.TruePositives+res.FalsePositives)
	}
	if res.TruePositives+res.FalseNegatives > 0 {
		res.Recall = float64(res.TruePositives) / float64(res.TruePositives+res.FalseNegatives)
	}
	if res.Precision+res.Recall > 0 {
		res.F1 = 2 * res.Precision * res.Recall / (res.Precision + res.Recall)
	}
	return res
}

func jaccard(set map[string]bool, ids []string) float64 {
	other := make(map[string]bool, len(ids))
	for _, id := range ids {
		other[id] = true
	}
	if len(set) == 0 && len(other) == 0 {
		return 0
	}

	intersection := 0
	for id := range other {
		if set[id] {
			intersection++
		}
	}
	union := len(set) + len(other) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
