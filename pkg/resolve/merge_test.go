package resolve

import (
	"reflect"
	"testing"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

func TestUnionFindGroups(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(4, 5)

	want := [][]int{{0, 1, 2}, {3}, {4, 5}}
	if got := uf.groups(); !reflect.DeepEqual(got, want) {
		t.Errorf("groups() = %v, want %v", got, want)
	}
	if !uf.connected(0, 2) {
		t.Error("expected 0 and 2 to be transitively connected")
	}
	if uf.connected(0, 3) {
		t.Error("expected 0 and 3 to be separate")
	}
}

func TestPickCanonicalName(t *testing.T) {
	cases := []struct {
		name  string
		names []string
		want  string
	}{
		{"most frequent wins", []string{"GNN", "Graph Neural Network", "GNN"}, "GNN"},
		{"length breaks frequency tie", []string{"GNN", "Graph Neural Network"}, "Graph Neural Network"},
		{"lexicographic breaks full tie", []string{"alpha", "beta1"}, "alpha"},
		{"single member", []string{"Transformer"}, "Transformer"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			group := make([]scopedEntity, len(c.names))
			for i, n := range c.names {
				group[i] = scoped("e", n, common.EntityKindConcept, "concept", i, nil)
			}
			if got := pickCanonicalName(group); got != c.want {
				t.Errorf("pickCanonicalName() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestBuildCanonicalEntity(t *testing.T) {
	group := []scopedEntity{
		{
			RawEntity: common.RawEntity{
				ID:            "r2",
				Name:          "Graph Neural Network",
				Kind:          common.EntityKindMethod,
				Definition:    "A neural network operating on graph-structured data.",
				SourcePaperID: "paper-b",
				Embedding:     []float32{0.1, 0.2, 0.3},
			},
			Bucket: "method",
		},
		{
			RawEntity: common.RawEntity{
				ID:            "r1",
				Name:          "GNN",
				Kind:          common.EntityKindMethod,
				Definition:    "Short form.",
				SourcePaperID: "paper-a",
			},
			Bucket: "method",
		},
		{
			RawEntity: common.RawEntity{
				ID:            "r3",
				Name:          "GNN",
				Kind:          common.EntityKindMethod,
				SourcePaperID: "paper-a",
			},
			Bucket: "method",
		},
	}

	e := buildCanonicalEntity(group, common.MergeMethodAuto, 1.0, 3)

	if e.ID == "" {
		t.Error("expected a generated id")
	}
	if e.Name != "GNN" {
		t.Errorf("canonical name = %q, want GNN", e.Name)
	}
	if want := []string{"Graph Neural Network"}; !reflect.DeepEqual(e.Aliases, want) {
		t.Errorf("aliases = %v, want %v", e.Aliases, want)
	}
	if want := []string{"paper-a", "paper-b"}; !reflect.DeepEqual(e.SourcePaperIDs, want) {
		t.Errorf("source papers = %v, want %v", e.SourcePaperIDs, want)
	}
	if want := []string{"r1", "r2", "r3"}; !reflect.DeepEqual(e.RawEntityIDs, want) {
		t.Errorf("raw ids = %v, want %v", e.RawEntityIDs, want)
	}
	if e.Definition != "A neural network operating on graph-structured data." {
		t.Errorf("expected the longest definition, got %q", e.Definition)
	}
	if len(e.Embedding) != 3 {
		t.Errorf("expected the valid embedding to survive, got %v", e.Embedding)
	}
	if e.Resolution.Method != common.MergeMethodAuto || e.Resolution.Confidence != 1.0 {
		t.Errorf("unexpected resolution info %+v", e.Resolution)
	}
}

func TestBuildCanonicalEntitySingleMember(t *testing.T) {
	group := []scopedEntity{
		scoped("r1", "Dropout", common.EntityKindMethod, "method", 0, nil),
	}
	e := buildCanonicalEntity(group, "", 0, 3)

	if len(e.Aliases) != 0 {
		t.Errorf("expected no aliases, got %v", e.Aliases)
	}
	if e.Resolution.Method != "" {
		t.Errorf("expected empty resolution info for unmerged entity, got %+v", e.Resolution)
	}
}
