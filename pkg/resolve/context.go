package resolve

import (
	"sort"
	"strings"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// HomonymRule holds the context buckets and their keyword lists for one
// ambiguous entity name. The bucket whose keywords overlap the entity's
// context text the most wins.
type HomonymRule struct {
	Buckets map[string][]string
}

// HomonymRules maps normalized entity names to their disambiguation
// rules. Names without a rule get a default bucket derived from the
// entity kind.
type HomonymRules map[string]HomonymRule

// DefaultHomonymRules returns the built-in rule table for homonyms that
// occur frequently in research corpora. Callers can extend or replace it.
func DefaultHomonymRules() HomonymRules {
	return HomonymRules{
		"sat": {
			Buckets: map[string][]string{
				"logic": {
					"satisfiability", "boolean", "solver", "clause",
					"formula", "np", "complete", "proposition", "cnf",
				},
				"education": {
					"test", "exam", "college", "admission", "score",
					"student", "standardized", "board",
				},
			},
		},
		"transformer": {
			Buckets: map[string][]string{
				"deep_learning": {
					"attention", "neural", "encoder", "decoder", "layer",
					"token", "language", "model", "self",
				},
				"electrical": {
					"voltage", "current", "power", "winding", "coil",
					"grid", "magnetic", "electric",
				},
			},
		},
		"attention": {
			Buckets: map[string][]string{
				"deep_learning": {
					"neural", "query", "key", "value", "head", "softmax",
					"transformer", "weights",
				},
				"cognition": {
					"cognitive", "perception", "stimulus", "psychology",
					"working", "memory", "visual",
				},
			},
		},
	}
}

// DefaultBucket returns the stable fallback bucket for entities whose
// name has no homonym rule, derived from the entity kind.
func DefaultBucket(kind common.EntityKind) string {
	return strings.ToLower(string(kind))
}

// AssignContextBucket computes the context bucket for one raw entity.
// Pure function of the entity text and rule table: the same input always
// yields the same bucket, and unmapped or keyword-free entities fall
// back to the kind-derived default instead of erroring.
func AssignContextBucket(e common.RawEntity, rules HomonymRules) string {
	rule, ok := rules[NormalizeName(e.Name)]
	if !ok || len(rule.Buckets) == 0 {
		return DefaultBucket(e.Kind)
	}

	words := contextWordSet(e.ContextText())

	bestBucket := ""
	bestScore := 0
	names := make([]string, 0, len(rule.Buckets))
	for name := range rule.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0
		for _, kw := range rule.Buckets[name] {
			if words[strings.ToLower(kw)] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestBucket = name
		}
	}

	if bestScore == 0 {
		return DefaultBucket(e.Kind)
	}
	return bestBucket
}

func contextWordSet(text string) map[string]bool {
	words := strings.Fields(NormalizeName(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
