package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	gUtil "github.com/lacuna-ai/lacuna/internal/util"
)

// MaxConfirmBatchTokens bounds the serialized pair list of a single
// confirmation request. Callers split larger batches.
const MaxConfirmBatchTokens = 6000

// MergePair is one candidate pair submitted for yes/no confirmation.
type MergePair struct {
	ID          string
	NameA       string
	DefinitionA string
	NameB       string
	DefinitionB string
}

// MergeDecision is the model's verdict on one candidate pair.
type MergeDecision struct {
	PairID      string  `json:"pair_id" jsonschema_description:"The id of the pair this decision is for."`
	SameConcept bool    `json:"same_concept" jsonschema_description:"Whether both names refer to the same real-world concept."`
	Confidence  float64 `json:"confidence" jsonschema_description:"Decision confidence between 0.0 and 1.0."`
}

// MergeDecisionsResponse is the structured response of a confirmation call.
type MergeDecisionsResponse struct {
	Decisions []MergeDecision `json:"decisions" jsonschema_description:"One decision per input pair."`
}

// ConfirmMergePairs asks the model to decide, for each candidate pair,
// whether both mentions name the same concept. The call runs under the
// given per-call timeout with exactly maxRetries attempts and returns a
// typed error (LLMTimeoutError/LLMUnavailableError) on failure so the
// caller can fall back deterministically.
func ConfirmMergePairs(
	ctx context.Context,
	pairs []MergePair,
	client ResolutionAIClient,
	timeout time.Duration,
	maxRetries int,
	encoder string,
) (*MergeDecisionsResponse, error) {
	if client == nil {
		return nil, &LLMUnavailableError{Provider: "none", Err: fmt.Errorf("ai client is nil")}
	}
	if len(pairs) == 0 {
		return &MergeDecisionsResponse{Decisions: []MergeDecision{}}, nil
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var pairData strings.Builder
	pairData.WriteString("Candidate pairs:\n")
	for _, p := range pairs {
		fmt.Fprintf(&pairData, "- ID: %s\n  A: %s", p.ID, p.NameA)
		if p.DefinitionA != "" {
			fmt.Fprintf(&pairData, " (%s)", p.DefinitionA)
		}
		fmt.Fprintf(&pairData, "\n  B: %s", p.NameB)
		if p.DefinitionB != "" {
			fmt.Fprintf(&pairData, " (%s)", p.DefinitionB)
		}
		pairData.WriteString("\n")
	}
	if CountTokens(pairData.String(), encoder) > MaxConfirmBatchTokens {
		return nil, fmt.Errorf("confirmation batch exceeds %d tokens, split it", MaxConfirmBatchTokens)
	}

	prompt := fmt.Sprintf(MergeConfirmPrompt, pairData.String())

	var res MergeDecisionsResponse
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		rCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.GenerateCompletionWithFormat(
			rCtx, "confirm_merges", "Confirm whether candidate entity pairs are the same concept.", prompt, &res,
		)
	})
	if err != nil {
		return nil, ClassifyError("merge-confirm", timeout, err)
	}
	return &res, nil
}
