package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lacuna-ai/lacuna/pkg/ai"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

const (
	minLabelLen = 3
	maxLabelLen = 60

	// UnnamedClusterLabel is the terminal label fallback. A generic
	// "Cluster N" string is never emitted.
	UnnamedClusterLabel = "Unnamed Cluster"

	maxLabelKeywords  = 5
	maxLabelExemplars = 5
)

var keywordStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "based": true, "by": true, "for": true, "from": true,
	"in": true, "is": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "using": true, "via": true,
	"with": true,
}

// clusterKeywords returns the most frequent non-stopword terms across
// the members' names and definitions, most frequent first with
// alphabetical tie-break.
func clusterKeywords(members []common.CanonicalEntity, limit int) []string {
	freq := make(map[string]int)
	for _, m := range members {
		text := strings.ToLower(m.Name + " " + m.Definition)
		for _, w := range strings.Fields(text) {
			w = strings.Trim(w, ".,;:()[]{}\"'!?")
			if len(w) < 2 || keywordStopwords[w] {
				continue
			}
			freq[w]++
		}
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

// labelCluster resolves a cluster label through the ordered chain:
// LLM suggestion within length bounds, keyword join, then the literal
// unnamed fallback. Never fails.
func (a *Analyzer) labelCluster(
	ctx context.Context,
	members []common.CanonicalEntity,
	client ai.ResolutionAIClient,
) string {
	keywords := clusterKeywords(members, maxLabelKeywords)
	exemplars := make([]string, 0, maxLabelExemplars)
	for _, m := range members {
		exemplars = append(exemplars, m.Name)
		if len(exemplars) == maxLabelExemplars {
			break
		}
	}

	if client != nil {
		label, err := ai.CallClusterLabelAI(
			ctx, keywords, exemplars, client,
			time.Duration(a.llmTimeoutSec)*time.Second,
			a.maxRetries,
		)
		switch {
		case err != nil:
			logger.Warn("[Analysis] Label generation failed, falling back to keywords", "error", err)
		case len(label) < minLabelLen || len(label) > maxLabelLen:
			logger.Warn("[Analysis] Label length out of bounds, falling back to keywords",
				"label", label, "length", len(label))
		default:
			return label
		}
	}

	if joined := joinKeywords(keywords); joined != "" {
		return joined
	}
	return UnnamedClusterLabel
}

// joinKeywords builds the deterministic fallback label. Empty and
// whitespace-only keywords are filtered; an empty result means the
// caller should use the unnamed fallback.
func joinKeywords(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		parts = append(parts, k)
		if len(parts) == 3 {
			break
		}
	}
	label := strings.Join(parts, " / ")
	if len(label) > maxLabelLen {
		label = label[:maxLabelLen]
	}
	if len(label) < minLabelLen {
		return ""
	}
	return label
}
