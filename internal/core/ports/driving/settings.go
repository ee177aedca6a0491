package driving

import "github.com/custodia-labs/quarry/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set stores a single dotted key such as "retrieval.default_top_k".
	Set(key, value string) error

	// Keys lists every supported key in display order.
	Keys() []string

	// SetAPIKey stores the API key for a cloud provider.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// Validate checks the settings are complete enough to index and answer.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
