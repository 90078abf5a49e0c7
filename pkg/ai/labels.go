package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	gUtil "github.com/lacuna-ai/lacuna/internal/util"
)

// ClusterLabelResponse is the structured response of a label call.
type ClusterLabelResponse struct {
	Label string `json:"label" jsonschema_description:"Short descriptive label for the cluster, 3-60 characters."`
}

// BridgeHypothesisResponse is the structured response of a hypothesis call.
type BridgeHypothesisResponse struct {
	Hypothesis string `json:"hypothesis" jsonschema_description:"One-sentence research question bridging the two clusters."`
}

// CallClusterLabelAI asks the model for a short descriptive label built
// from the cluster's frequent terms and exemplar concept names. Returns
// a typed error on failure; the caller enforces length bounds and falls
// back to a keyword join.
func CallClusterLabelAI(
	ctx context.Context,
	keywords []string,
	exemplars []string,
	client ResolutionAIClient,
	timeout time.Duration,
	maxRetries int,
) (string, error) {
	if client == nil {
		return "", &LLMUnavailableError{Provider: "none", Err: fmt.Errorf("ai client is nil")}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	prompt := fmt.Sprintf(ClusterLabelPrompt,
		strings.Join(keywords, ", "),
		strings.Join(exemplars, ", "),
	)

	var res ClusterLabelResponse
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		rCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.GenerateCompletionWithFormat(
			rCtx, "cluster_label", "Name a group of related research concepts.", prompt, &res,
		)
	})
	if err != nil {
		return "", ClassifyError("cluster-label", timeout, err)
	}
	return strings.TrimSpace(res.Label), nil
}

// CallBridgeHypothesisAI asks the model to phrase a research question for
// a structural gap. Best-effort: failures are reported as typed errors
// and the gap record stays valid without a hypothesis.
func CallBridgeHypothesisAI(
	ctx context.Context,
	labelA string,
	exemplarsA []string,
	labelB string,
	exemplarsB []string,
	bridgeNames []string,
	client ResolutionAIClient,
	timeout time.Duration,
	maxRetries int,
) (string, error) {
	if client == nil {
		return "", &LLMUnavailableError{Provider: "none", Err: fmt.Errorf("ai client is nil")}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	prompt := fmt.Sprintf(BridgeHypothesisPrompt,
		labelA, strings.Join(exemplarsA, ", "),
		labelB, strings.Join(exemplarsB, ", "),
		strings.Join(bridgeNames, ", "),
	)

	var res BridgeHypothesisResponse
	err := gUtil.RetryErrWithContext(ctx, maxRetries, func(ctx context.Context) error {
		rCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.GenerateCompletionWithFormat(
			rCtx, "bridge_hypothesis", "Phrase a research question bridging two concept clusters.", prompt, &res,
		)
	})
	if err != nil {
		return "", ClassifyError("bridge-hypothesis", timeout, err)
	}
	return strings.TrimSpace(res.Hypothesis), nil
}
