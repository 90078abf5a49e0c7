package analysis

import (
	"math"
	"testing"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

func TestComputeCentralityPathGraph(t *testing.T) {
	a := testAnalyzer(t)
	entities := []common.CanonicalEntity{entity("a"), entity("b"), entity("c"), entity("d"), entity("e")}
	relationships := []common.Relationship{
		edge("a", "b"), edge("b", "c"), edge("c", "d"), edge("d", "e"),
	}

	scores := a.ComputeCentrality(entities, relationships)
	if len(scores) != 5 {
		t.Fatalf("expected scores for 5 entities, got %d", len(scores))
	}

	// The middle of a path carries every shortest path.
	if scores["c"].Betweenness <= scores["b"].Betweenness {
		t.Errorf("betweenness c=%v should exceed b=%v", scores["c"].Betweenness, scores["b"].Betweenness)
	}
	if scores["a"].Betweenness != 0 || scores["e"].Betweenness != 0 {
		t.Errorf("endpoints should have zero betweenness, got %v / %v",
			scores["a"].Betweenness, scores["e"].Betweenness)
	}

	// c sits on paths a-d, a-e, b-d, b-e and both of a-c..; exact value
	// for the middle of P5 is 4 of 6 pairs -> normalized 4/6.
	if got, want := scores["c"].Betweenness, 4.0/6.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("betweenness c = %v, want %v", got, want)
	}
}

func TestComputeCentralityStarGraph(t *testing.T) {
	a := testAnalyzer(t)
	entities := []common.CanonicalEntity{
		entity("hub"), entity("s1"), entity("s2"), entity("s3"), entity("s4"),
	}
	relationships := []common.Relationship{
		edge("hub", "s1"), edge("hub", "s2"), edge("hub", "s3"), edge("hub", "s4"),
	}

	scores := a.ComputeCentrality(entities, relationships)

	if scores["hub"].Degree != 1.0 {
		t.Errorf("hub normalized degree = %v, want 1.0", scores["hub"].Degree)
	}
	if scores["s1"].Degree != 0.25 {
		t.Errorf("spoke normalized degree = %v, want 0.25", scores["s1"].Degree)
	}
	if scores["hub"].Eigenvector != 1.0 {
		t.Errorf("hub eigenvector = %v, want 1.0", scores["hub"].Eigenvector)
	}
	for _, spoke := range []string{"s1", "s2", "s3", "s4"} {
		if scores[spoke].Eigenvector >= scores["hub"].Eigenvector {
			t.Errorf("spoke %s eigenvector %v not below hub", spoke, scores[spoke].Eigenvector)
		}
	}
	if scores["hub"].Betweenness != 1.0 {
		t.Errorf("hub betweenness = %v, want 1.0", scores["hub"].Betweenness)
	}
}

func TestComputeCentralityEmptyAndIsolated(t *testing.T) {
	a := testAnalyzer(t)

	if scores := a.ComputeCentrality(nil, nil); len(scores) != 0 {
		t.Errorf("expected empty result, got %v", scores)
	}

	scores := a.ComputeCentrality([]common.CanonicalEntity{entity("x"), entity("y")}, nil)
	for id, s := range scores {
		if s.Degree != 0 || s.Betweenness != 0 || s.Eigenvector != 0 {
			t.Errorf("isolated node %s has nonzero centrality %+v", id, s)
		}
	}
}
