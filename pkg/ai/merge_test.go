package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

// blockingClient waits out the per-call deadline on every completion
// request and reports how often it was asked.
type blockingClient struct {
	calls int
}

func (c *blockingClient) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (c *blockingClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...GenerateOption) error {
	c.calls++
	<-ctx.Done()
	return ctx.Err()
}

func (c *blockingClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, errors.New("not used")
}

func (c *blockingClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	return nil, errors.New("not used")
}

func (c *blockingClient) GetMetrics() ModelMetrics { return ModelMetrics{} }
func (c *blockingClient) ResetMetrics()            {}

func TestConfirmMergePairsRetriesAfterTimeout(t *testing.T) {
	client := &blockingClient{}
	pairs := []MergePair{{ID: "p-0", NameA: "GNN", NameB: "Graph Neural Network"}}

	_, err := ConfirmMergePairs(context.Background(), pairs, client, 5*time.Millisecond, 2, DefaultTokenEncoder)

	var timeoutErr *LLMTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("ConfirmMergePairs() error = %v, want LLMTimeoutError", err)
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2 (one retry after the timed-out attempt)", client.calls)
	}
}

func TestConfirmMergePairsStopsOnCallerCancel(t *testing.T) {
	client := &blockingClient{}
	pairs := []MergePair{{ID: "p-0", NameA: "BERT", NameB: "bert"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConfirmMergePairs(ctx, pairs, client, time.Second, 2, DefaultTokenEncoder)
	if err == nil {
		t.Fatal("ConfirmMergePairs() error = nil, want error for cancelled caller context")
	}
	if client.calls != 0 {
		t.Errorf("client calls = %d, want 0 after caller cancellation", client.calls)
	}
}
