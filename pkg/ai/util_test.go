package ai

import "testing"

type testPayload struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func TestUnmarshalFlexible(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  testPayload
	}{
		{
			name:  "well formed",
			input: `{"label": "graph methods", "score": 0.9}`,
			want:  testPayload{Label: "graph methods", Score: 0.9},
		},
		{
			name:  "double encoded",
			input: `"{\"label\": \"graph methods\", \"score\": 0.9}"`,
			want:  testPayload{Label: "graph methods", Score: 0.9},
		},
		{
			name:  "trailing comma repaired",
			input: `{"label": "graph methods", "score": 0.9,}`,
			want:  testPayload{Label: "graph methods", Score: 0.9},
		},
		{
			name:  "missing closing brace repaired",
			input: `{"label": "graph methods", "score": 0.9`,
			want:  testPayload{Label: "graph methods", Score: 0.9},
		},
		{
			name:  "surrounding whitespace",
			input: "\n  {\"label\": \"graph methods\", \"score\": 0.9}  \n",
			want:  testPayload{Label: "graph methods", Score: 0.9},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var got testPayload
			if err := UnmarshalFlexible(c.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible: %v", err)
			}
			if got != c.want {
				t.Errorf("got %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestUnmarshalFlexibleUnrepairable(t *testing.T) {
	var got testPayload
	if err := UnmarshalFlexible("not json at all {{{", &got); err == nil {
		t.Error("expected an error for unrepairable input")
	}
}

func TestGenerateSchemaInlines(t *testing.T) {
	schema := GenerateSchema(testPayload{})
	if schema == nil {
		t.Fatal("expected a schema")
	}
	schema = GenerateSchema(&testPayload{})
	if schema == nil {
		t.Fatal("expected a schema from a pointer")
	}
}
