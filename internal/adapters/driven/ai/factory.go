// Package ai builds the embedding and chat model adapters selected by
// settings.
package ai

import (
	"fmt"

	ollamaembed "github.com/custodia-labs/quarry/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/quarry/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// CreateEmbeddingService creates the embedding service for settings.
// An unconfigured provider returns ErrEmbeddingUnavailable with a hint.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		var provider domain.AIProvider
		if settings != nil {
			provider = settings.Provider
		}
		return nil, notConfigured(domain.ErrEmbeddingUnavailable, "embedding", provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrEmbeddingUnavailable)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrEmbeddingUnavailable, settings.Provider)
	}
}

// CreateLLMService creates the chat model for settings.
// An unconfigured provider returns ErrLLMUnavailable with a hint.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		var provider domain.AIProvider
		if settings != nil {
			provider = settings.Provider
		}
		return nil, notConfigured(domain.ErrLLMUnavailable, "LLM", provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrLLMUnavailable, settings.Provider)
	}
}

func notConfigured(sentinel error, role string, provider domain.AIProvider) error {
	if provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s provider %s has no API key. Run 'quarry config set-key %s' or set it in the environment",
			sentinel, role, provider, provider)
	}
	return fmt.Errorf("%w: %s provider %q is not configured. Run 'quarry config set' to choose one",
		sentinel, role, provider)
}
