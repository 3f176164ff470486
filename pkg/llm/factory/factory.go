package factory

import (
	"fmt"

	"rag-knowledge-be/pkg/llm"
	"rag-knowledge-be/pkg/llm/huggingface"
	"rag-knowledge-be/pkg/llm/ollama"
	"rag-knowledge-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, apiKey, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai", "openai_compatible":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

func NewEmbeddingProvider(providerType, modelName, apiKey, baseURL string, dim int) (llm.EmbeddingProvider, error) {
	switch providerType {
	case "openai", "openai_compatible":
		return openai.NewOpenAIEmbedder(apiKey, baseURL, modelName, dim), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
