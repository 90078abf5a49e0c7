package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// Two 3-entity clusters with a single connecting edge and one spanning
// node wired into both.
func gapFixture() ([]common.CanonicalEntity, []common.Relationship, []common.Cluster) {
	entities := []common.CanonicalEntity{
		embedded("a1", []float32{1, 0, 0}),
		embedded("a2", []float32{0.9, 0.1, 0}),
		embedded("a3", []float32{0.95, 0, 0.05}),
		embedded("b1", []float32{0, 0, 1}),
		embedded("b2", []float32{0, 0.1, 0.9}),
		embedded("b3", []float32{0.05, 0, 0.95}),
		embedded("bridge", []float32{0.5, 0, 0.5}),
	}
	relationships := []common.Relationship{
		edge("a1", "a2"), edge("a2", "a3"),
		edge("b1", "b2"), edge("b2", "b3"),
		edge("a3", "b1"),
		edge("bridge", "a1"), edge("bridge", "b3"),
	}
	clusters := []common.Cluster{
		{ID: "ca", MemberIDs: []string{"a1", "a2", "a3"}, Label: "A"},
		{ID: "cb", MemberIDs: []string{"b1", "b2", "b3"}, Label: "B"},
	}
	return entities, relationships, clusters
}

func TestAnalyzeGapsFlagsSparsePair(t *testing.T) {
	a, err := NewAnalyzer(NewAnalyzerParams{
		EmbeddingDimensions: 3,
		GapDensityThreshold: 0.3,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	entities, relationships, clusters := gapFixture()

	gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, nil)
	if err != nil {
		t.Fatalf("AnalyzeGaps: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}

	gap := gaps[0]
	// 1 edge of 9 possible, density 1/9 below 0.3.
	if gap.GapStrength <= 0 || gap.GapStrength > 1 {
		t.Errorf("gap strength %v out of (0, 1]", gap.GapStrength)
	}
	// a3 and b1 sit on the single connecting edge, bridge is wired into
	// both clusters from outside.
	want := []string{"a3", "b1", "bridge"}
	if len(gap.BridgeCandidateIDs) != len(want) {
		t.Fatalf("bridge candidates = %v, want %v", gap.BridgeCandidateIDs, want)
	}
	for i, id := range want {
		if gap.BridgeCandidateIDs[i] != id {
			t.Errorf("bridge candidates = %v, want %v", gap.BridgeCandidateIDs, want)
			break
		}
	}
	if gap.Hypothesis != "" {
		t.Errorf("hypothesis generated without a client: %q", gap.Hypothesis)
	}
}

func TestAnalyzeGapsDisjointSides(t *testing.T) {
	a, err := NewAnalyzer(NewAnalyzerParams{
		EmbeddingDimensions: 3,
		GapDensityThreshold: 0.3,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	entities, relationships, clusters := gapFixture()

	gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, nil)
	if err != nil {
		t.Fatalf("AnalyzeGaps: %v", err)
	}
	for _, gap := range gaps {
		inA := make(map[string]bool)
		for _, id := range gap.ClusterAEntityIDs {
			inA[id] = true
		}
		for _, id := range gap.ClusterBEntityIDs {
			if inA[id] {
				t.Errorf("entity %s on both sides of gap %s", id, gap.ID)
			}
		}
	}
}

func TestAnalyzeGapsGhostEdges(t *testing.T) {
	a, err := NewAnalyzer(NewAnalyzerParams{
		EmbeddingDimensions: 3,
		GapDensityThreshold: 0.3,
		GhostEdgeTopK:       3,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	entities, relationships, clusters := gapFixture()

	gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, nil)
	if err != nil {
		t.Fatalf("AnalyzeGaps: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}

	edges := gaps[0].PotentialEdges
	if len(edges) == 0 || len(edges) > 3 {
		t.Fatalf("ghost edges = %d, want 1..3", len(edges))
	}
	for i, e := range edges {
		if e.SourceID == "a3" && e.TargetID == "b1" {
			t.Error("existing relationship reported as ghost edge")
		}
		if i > 0 && edges[i-1].Similarity < e.Similarity {
			t.Error("ghost edges not sorted by similarity")
		}
	}
}

func TestAnalyzeGapsDensePairNotFlagged(t *testing.T) {
	a := testAnalyzer(t)
	entities := []common.CanonicalEntity{
		entity("a1"), entity("a2"), entity("b1"), entity("b2"),
	}
	relationships := []common.Relationship{
		edge("a1", "b1"), edge("a1", "b2"), edge("a2", "b1"), edge("a2", "b2"),
	}
	clusters := []common.Cluster{
		{ID: "ca", MemberIDs: []string{"a1", "a2"}, Label: "A"},
		{ID: "cb", MemberIDs: []string{"b1", "b2"}, Label: "B"},
	}

	gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, nil)
	if err != nil {
		t.Fatalf("AnalyzeGaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Errorf("fully connected pair flagged as gap")
	}
}

func TestAnalyzeGapsHypothesisBestEffort(t *testing.T) {
	a, err := NewAnalyzer(NewAnalyzerParams{
		EmbeddingDimensions: 3,
		GapDensityThreshold: 0.3,
		GenerateHypotheses:  true,
	})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	entities, relationships, clusters := gapFixture()

	t.Run("success", func(t *testing.T) {
		client := &mockAIClient{hypothesis: "Can methods from A inform B?"}
		gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, client)
		if err != nil {
			t.Fatalf("AnalyzeGaps: %v", err)
		}
		if gaps[0].Hypothesis != "Can methods from A inform B?" {
			t.Errorf("hypothesis = %q", gaps[0].Hypothesis)
		}
	})

	t.Run("failure keeps gap", func(t *testing.T) {
		client := &mockAIClient{err: errors.New("unavailable")}
		gaps, err := a.AnalyzeGaps(context.Background(), entities, relationships, clusters, client)
		if err != nil {
			t.Fatalf("hypothesis failure must not invalidate gaps: %v", err)
		}
		if len(gaps) != 1 {
			t.Fatalf("gap dropped on hypothesis failure")
		}
		if gaps[0].Hypothesis != "" {
			t.Errorf("unexpected hypothesis %q", gaps[0].Hypothesis)
		}
	})
}
