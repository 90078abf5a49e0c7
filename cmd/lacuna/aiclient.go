package main

import (
	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/ai"
	oai "github.com/lacuna-ai/lacuna/pkg/ai/ollama"
	gai "github.com/lacuna-ai/lacuna/pkg/ai/openai"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// newAIClient builds the model client selected by AI_ADAPTER. Returns
// nil when no adapter is configured; the core then runs with its
// deterministic fallbacks only.
func newAIClient() ai.ResolutionAIClient {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewResolutionOllamaClient(oai.NewResolutionOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			BaseURL:        util.GetEnv("AI_CHAT_URL"),
			ApiKey:         util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	case "openai":
		return gai.NewResolutionOpenAIClient(gai.NewResolutionOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatURL:        util.GetEnv("AI_CHAT_URL"),
			ChatKey:        util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL:   util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey:   util.GetEnv("AI_EMBED_KEY"),
		})
	default:
		logger.Warn("No AI_ADAPTER configured, running with deterministic fallbacks only")
		return nil
	}
}
