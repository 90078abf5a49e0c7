package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/lacuna-ai/lacuna/pkg/ai"
)

// ResolutionOpenAIClient implements ai.ResolutionAIClient against any
// OpenAI-compatible API. It manages separate clients for chat and
// embedding endpoints so the two can point at different deployments.
//
// A ResolutionOpenAIClient should be created using NewResolutionOpenAIClient.
type ResolutionOpenAIClient struct {
	chatModel      string
	embeddingModel string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	timeoutMin int64

	chatLock      *semaphore.Weighted
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewResolutionOpenAIClientParams defines the configuration for creating
// a new ResolutionOpenAIClient.
//
// ChatModel is used for merge confirmation, labels, and hypotheses.
// EmbeddingModel is used for entity embeddings.
// TimeoutMin bounds a single request in minutes (default 2).
// MaxConcurrentRequests caps in-flight requests per endpoint (default 8).
type NewResolutionOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	TimeoutMin            int64
	MaxConcurrentRequests int64
}

// NewResolutionOpenAIClient creates and returns a new client configured
// with the provided parameters.
//
// Example:
//
//	params := openai.NewResolutionOpenAIClientParams{
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingModel: "text-embedding-3-small",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewResolutionOpenAIClient(params)
func NewResolutionOpenAIClient(
	params NewResolutionOpenAIClientParams,
) *ResolutionOpenAIClient {
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 2
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	return &ResolutionOpenAIClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin: timeoutMin,

		chatLock:      semaphore.NewWeighted(maxConcurrent),
		embeddingLock: semaphore.NewWeighted(maxConcurrent),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *ResolutionOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// GetMetrics returns the accumulated usage metrics for this client.
func (c *ResolutionOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

// ResetMetrics clears the accumulated usage metrics.
func (c *ResolutionOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}
