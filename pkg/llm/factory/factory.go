package factory

import (
	"fmt"

	"ai-salesbot-be/pkg/llm"
	"ai-salesbot-be/pkg/llm/ollama"
	"ai-salesbot-be/pkg/llm/openai"
)

// NewProvider selects the completion backend from configuration.
func NewProvider(providerType, modelName, apiKey, ollamaBaseURL string) (llm.Provider, error) {
	switch providerType {
	case "openai":
		return openai.NewProvider(apiKey, modelName), nil
	case "ollama":
		return ollama.NewProvider(ollamaBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
