package resolve

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Graph Neural Network", "graph neural network"},
		{"strips punctuation", "BERT: Pre-training!", "bert pre training"},
		{"hyphens become spaces", "fine-tuning", "fine tuning"},
		{"slashes become spaces", "encoder/decoder", "encoder decoder"},
		{"collapses whitespace", "  large \t language   model ", "large language model"},
		{"keeps digits", "GPT-4", "gpt 4"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeName(c.in); got != c.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCompareKeyCollapsesSpellingVariants(t *testing.T) {
	variants := []string{"fine-tuning", "fine tuning", "finetuning", "Fine-Tuning"}
	want := CompareKey(variants[0])
	for _, v := range variants {
		if got := CompareKey(v); got != want {
			t.Errorf("CompareKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestAcronymRegistryScan(t *testing.T) {
	r := NewAcronymRegistry()
	r.Scan("We use a Graph Neural Network (GNN) for node classification.")

	if !r.Match(CompareKey("GNN"), CompareKey("graph neural network")) {
		t.Error("expected GNN to match its scanned long form")
	}
	if !r.Match(CompareKey("graph neural network"), CompareKey("gnn")) {
		t.Error("expected match to be symmetric")
	}
	if r.Match(CompareKey("GNN"), CompareKey("generative adversarial network")) {
		t.Error("unexpected match against unrelated long form")
	}
}

func TestAcronymRegistryRejectsNonMatchingInitials(t *testing.T) {
	r := NewAcronymRegistry()
	r.Scan("trained on a large corpus (BERT) of text")
	if r.Len() != 0 {
		t.Errorf("expected no registrations, got %d", r.Len())
	}
}

func TestAcronymRegistryStopwords(t *testing.T) {
	r := NewAcronymRegistry()
	r.Scan("Support Vector Machine (SVM) and Bag of Words (BOW) features")

	if !r.Match(CompareKey("SVM"), CompareKey("support vector machine")) {
		t.Error("expected SVM registration")
	}
	// "of" is skipped when matching initials.
	if !r.Match(CompareKey("BOW"), CompareKey("bag of words")) {
		t.Error("expected BOW registration despite stopword")
	}
}

func TestAcronymRegistryCrossEntity(t *testing.T) {
	// Defined in one entity's text, usable for a different entity pair.
	r := NewAcronymRegistry()
	r.Scan("Reinforcement Learning from Human Feedback (RLHF) aligns models.")

	if !r.Match(CompareKey("rlhf"), CompareKey("reinforcement learning from human feedback")) {
		t.Error("expected registry to apply batch-wide")
	}
}
