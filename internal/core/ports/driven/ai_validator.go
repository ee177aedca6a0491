package driven

import "github.com/custodia-labs/quarry/internal/core/domain"

// AIConfigValidator checks that a model provider answers with the given
// settings. Failures wrap domain.ErrEmbeddingUnavailable or
// domain.ErrLLMUnavailable, including for a provider with no key.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
