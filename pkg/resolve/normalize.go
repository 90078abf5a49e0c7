package resolve

import (
	"regexp"
	"strings"
)

var (
	rePunct      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reHyphen     = regexp.MustCompile(`[-_/]+`)
	reAcronymDef = regexp.MustCompile(`([\p{L}][\p{L}\p{N}-]*(?:\s+[\p{L}\p{N}-]+){0,6})\s*\(([A-Z][A-Za-z]{1,9})\)`)
)

// NormalizeName standardizes an entity name for comparison: lowercase,
// hyphens and slashes become spaces, remaining punctuation is stripped,
// and whitespace is collapsed.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = reHyphen.ReplaceAllString(name, " ")
	name = rePunct.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// CompareKey reduces a name to its comparison form. On top of
// NormalizeName it drops a trailing acronym definition and removes
// inner spaces, so hyphen/space spelling variants collapse onto one key
// ("fine-tuning", "fine tuning" and "finetuning" all become
// "finetuning", and "Graph Neural Network (GNN)" keys like its long form).
func CompareKey(name string) string {
	name = reAcronymDef.ReplaceAllString(name, "$1")
	return strings.ReplaceAll(NormalizeName(name), " ", "")
}

// AcronymRegistry maps acronym compare-keys to long-form compare-keys
// collected from `Long Form (ACRONYM)` patterns anywhere in a batch.
// The mapping is usable across the whole batch, not just the entity the
// pattern appeared in.
type AcronymRegistry struct {
	byAcronym map[string]string
}

// NewAcronymRegistry returns an empty registry.
func NewAcronymRegistry() *AcronymRegistry {
	return &AcronymRegistry{byAcronym: make(map[string]string)}
}

// Scan extracts acronym definitions from the given text and registers
// them. The capture may include words preceding the actual long form,
// so the longest suffix whose initials match the bracketed token wins;
// patterns with no matching suffix are ignored.
func (r *AcronymRegistry) Scan(text string) {
	for _, m := range reAcronymDef.FindAllStringSubmatch(text, -1) {
		words, acronym := strings.Fields(m[1]), m[2]
		for i := 0; i < len(words)-1; i++ {
			longForm := strings.Join(words[i:], " ")
			if initialsMatch(longForm, acronym) {
				r.byAcronym[CompareKey(acronym)] = CompareKey(longForm)
				break
			}
		}
	}
}

// Register adds an explicit acronym -> long form mapping.
func (r *AcronymRegistry) Register(acronym, longForm string) {
	r.byAcronym[CompareKey(acronym)] = CompareKey(longForm)
}

// Expand returns the long-form compare-key for an acronym compare-key,
// or "" if unknown.
func (r *AcronymRegistry) Expand(acronymKey string) string {
	return r.byAcronym[acronymKey]
}

// Match reports whether two compare-keys name the same concept through
// the registry: one is an acronym whose registered long form equals the
// other.
func (r *AcronymRegistry) Match(keyA, keyB string) bool {
	if keyA == keyB {
		return false
	}
	if long, ok := r.byAcronym[keyA]; ok && long == keyB {
		return true
	}
	if long, ok := r.byAcronym[keyB]; ok && long == keyA {
		return true
	}
	return false
}

// Len returns the number of registered acronyms.
func (r *AcronymRegistry) Len() int {
	return len(r.byAcronym)
}

var acronymStopwords = map[string]bool{
	"of": true, "the": true, "and": true, "for": true, "in": true,
	"on": true, "a": true, "an": true, "to": true, "from": true,
}

// initialsMatch checks that the acronym letters line up with the first
// letters of the long-form words, with stopwords either contributing a
// letter or not ("NLP" for "natural language processing", "LOTR" for
// "lord of the rings").
func initialsMatch(longForm, acronym string) bool {
	words := strings.Fields(NormalizeName(longForm))
	if len(words) < 2 {
		return false
	}
	letters := strings.ToLower(rePunct.ReplaceAllString(acronym, ""))

	var initials, allInitials strings.Builder
	for _, w := range words {
		allInitials.WriteByte(w[0])
		if !acronymStopwords[w] {
			initials.WriteByte(w[0])
		}
	}
	return letters == initials.String() || letters == allInitials.String()
}
