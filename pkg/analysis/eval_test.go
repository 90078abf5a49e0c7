package analysis

import (
	"math"
	"testing"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

func detectedGap(aIDs, bIDs []string) common.StructuralGap {
	return common.StructuralGap{ClusterAEntityIDs: aIDs, ClusterBEntityIDs: bIDs}
}

func TestEvaluateGapsScenario(t *testing.T) {
	// 5 ground-truth gaps, 4 detected: 3 overlap a truth set well past
	// the 0.3 Jaccard bar, 1 detection matches nothing.
	truth := [][]string{
		{"t1", "t2", "t3", "t4"},
		{"u1", "u2", "u3", "u4"},
		{"v1", "v2", "v3", "v4"},
		{"w1", "w2", "w3", "w4"},
		{"x1", "x2", "x3", "x4"},
	}
	detected := []common.StructuralGap{
		detectedGap([]string{"t1", "t2"}, []string{"t3", "t4"}),
		detectedGap([]string{"u1", "u2"}, []string{"u3"}),
		detectedGap([]string{"v1", "v2", "v3"}, []string{"v4"}),
		detectedGap([]string{"z1", "z2"}, []string{"z3", "z4"}),
	}

	res := EvaluateGaps(detected, truth)

	if res.TruePositives != 3 || res.FalsePositives != 1 || res.FalseNegatives != 2 {
		t.Fatalf("tp/fp/fn = %d/%d/%d, want 3/1/2",
			res.TruePositives, res.FalsePositives, res.FalseNegatives)
	}
	if res.Precision != 0.75 {
		t.Errorf("precision = %v, want 0.75", res.Precision)
	}
	if res.Recall != 0.60 {
		t.Errorf("recall = %v, want 0.60", res.Recall)
	}
	if math.Abs(res.F1-2.0/3.0) > 0.01 {
		t.Errorf("f1 = %v, want about 0.67", res.F1)
	}
}

func TestEvaluateGapsJaccardThreshold(t *testing.T) {
	truth := [][]string{{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}}

	// Overlap 2 of union 10: Jaccard 0.2, below the bar.
	below := []common.StructuralGap{detectedGap([]string{"a"}, []string{"b"})}
	if res := EvaluateGaps(below, truth); res.TruePositives != 0 || res.FalsePositives != 1 {
		t.Errorf("low-overlap detection was matched: %+v", res)
	}

	// Overlap 4 of union 10: Jaccard 0.4, above the bar.
	above := []common.StructuralGap{detectedGap([]string{"a", "b"}, []string{"c", "d"})}
	if res := EvaluateGaps(above, truth); res.TruePositives != 1 || res.FalseNegatives != 0 {
		t.Errorf("high-overlap detection was not matched: %+v", res)
	}
}

func TestEvaluateGapsTruthMatchedOnce(t *testing.T) {
	truth := [][]string{{"a", "b", "c", "d"}}
	detected := []common.StructuralGap{
		detectedGap([]string{"a", "b"}, []string{"c", "d"}),
		detectedGap([]string{"a", "b"}, []string{"c"}),
	}

	res := EvaluateGaps(detected, truth)
	if res.TruePositives != 1 || res.FalsePositives != 1 {
		t.Errorf("truth set matched twice: %+v", res)
	}
}

func TestEvaluateGapsEmptyInputs(t *testing.T) {
	res := EvaluateGaps(nil, nil)
	if res.Precision != 0 || res.Recall != 0 || res.F1 != 0 {
		t.Errorf("empty evaluation should be all zeros: %+v", res)
	}

	res = EvaluateGaps(nil, [][]string{{"a", "b"}})
	if res.FalseNegatives != 1 {
		t.Errorf("expected 1 false negative, got %+v", res)
	}
}
