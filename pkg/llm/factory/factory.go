package factory

import (
	"fmt"
	"time"

	"ehr-navigator-be/pkg/llm"
	"ehr-navigator-be/pkg/llm/ollama"
	"ehr-navigator-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string, timeout time.Duration) (llm.LLMProvider, error) {
	switch providerType {
	case "openai", "llama-server", "":
		if baseURL == "" {
			baseURL = "http://localhost:8081" // llama-server default
		}
		return openai.NewOpenAIProvider(baseURL, apiKey, modelName, timeout), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
