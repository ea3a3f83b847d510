// Package embedding turns summary text into vectors for long-term memory.
package embedding

import (
	"fmt"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Dimensions matches the vector column of cognitive_summaries.
const Dimensions = 1536

// NewClient returns the embedding client for provider. The OpenAI provider
// requires an API key; the mock provider needs none.
func NewClient(provider, apiKey string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI embedding provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: openai, mock)", provider)
	}
}
