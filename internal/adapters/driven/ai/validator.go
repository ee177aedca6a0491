package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// defaultPingTimeout bounds one connectivity check.
const defaultPingTimeout = 5 * time.Second

// ConfigValidator builds a throwaway adapter from the settings and pings
// the provider with it. It backs `quarry config validate`.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator with the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: defaultPingTimeout}
}

// ValidateEmbedding fails with domain.ErrEmbeddingUnavailable when the
// provider is unset, unreachable or rejects the key.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.ping(svc.Ping)
}

// ValidateLLM is ValidateEmbedding for the chat model.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	svc, err := CreateLLMService(config)
	if err != nil {
		return err
	}
	defer svc.Close()
	return v.ping(svc.Ping)
}

func (v *ConfigValidator) ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return fn(ctx)
}
