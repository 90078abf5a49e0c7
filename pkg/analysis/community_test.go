package analysis

import (
	"context"
	"testing"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

func TestDetectCommunitiesGraphPartition(t *testing.T) {
	a := testAnalyzer(t)
	entities, relationships := twoTriangles()

	clusters, err := a.DetectCommunities(context.Background(), entities, relationships, nil)
	if err != nil {
		t.Fatalf("DetectCommunities: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	for _, c := range clusters {
		if c.Method != common.DetectionMethodGraphPartition {
			t.Errorf("method = %q, want graph-partition", c.Method)
		}
		if c.ID == "" || c.Label == "" {
			t.Errorf("cluster missing id or label: %+v", c)
		}
	}
}

func TestDetectCommunitiesDisjointMembership(t *testing.T) {
	a := testAnalyzer(t)
	entities, relationships := twoTriangles()

	clusters, err := a.DetectCommunities(context.Background(), entities, relationships, nil)
	if err != nil {
		t.Fatalf("DetectCommunities: %v", err)
	}

	seen := make(map[string]bool)
	for _, c := range clusters {
		for _, id := range c.MemberIDs {
			if seen[id] {
				t.Errorf("entity %s appears in more than one cluster", id)
			}
			seen[id] = true
		}
	}
}

func TestDetectCommunitiesFallsBackToEmbeddings(t *testing.T) {
	a := testAnalyzer(t)

	// No edges at all: the graph strategy is not applicable.
	entities := []common.CanonicalEntity{
		embedded("a1", []float32{1, 0, 0}),
		embedded("a2", []float32{0.9, 0.1, 0}),
		embedded("a3", []float32{0.95, 0.05, 0}),
		embedded("b1", []float32{0, 0, 1}),
		embedded("b2", []float32{0, 0.1, 0.9}),
		embedded("b3", []float32{0.05, 0, 0.95}),
	}

	clusters, err := a.DetectCommunities(context.Background(), entities, nil, nil)
	if err != nil {
		t.Fatalf("DetectCommunities: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("expected 2 fallback clusters, got %d", len(clusters))
	}
	for _, c := range clusters {
		if c.Method != common.DetectionMethodNumericFallback {
			t.Errorf("method = %q, want numeric-fallback", c.Method)
		}
		if len(c.Centroid) != 3 {
			t.Errorf("centroid dimension = %d, want 3", len(c.Centroid))
		}
	}
}

func TestDetectCommunitiesInsufficientData(t *testing.T) {
	a := testAnalyzer(t)

	// Two nodes, no usable embeddings: every strategy bows out.
	entities := []common.CanonicalEntity{entity("a1"), entity("a2")}

	clusters, err := a.DetectCommunities(context.Background(), entities, nil, nil)
	if err != nil {
		t.Fatalf("expected graceful empty result, got %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected empty cluster list, got %d", len(clusters))
	}
}

func TestDetectCommunitiesMismatchedEmbeddingsDegrade(t *testing.T) {
	a := testAnalyzer(t)

	entities := []common.CanonicalEntity{
		embedded("a1", []float32{1, 0, 0}),
		embedded("a2", []float32{0.9, 0.1, 0}),
		embedded("bad", []float32{1, 0}),
		embedded("b1", []float32{0, 0, 1}),
		embedded("b2", []float32{0, 0.1, 0.9}),
	}

	clusters, err := a.DetectCommunities(context.Background(), entities, nil, nil)
	if err != nil {
		t.Fatalf("DetectCommunities must not raise on mismatched embeddings: %v", err)
	}
	for _, c := range clusters {
		for _, id := range c.MemberIDs {
			if id == "bad" {
				t.Error("mismatched-dimension entity was clustered")
			}
		}
	}
}
