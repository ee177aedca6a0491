package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

type mockQueryService struct {
	answer domain.Answer
	err    error
	stats  domain.IndexStats
}

func (m *mockQueryService) Ask(_ context.Context, question string) (domain.Answer, error) {
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	a := m.answer
	a.Question = question
	return a, nil
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (m *mockQueryService) Explain(_ context.Context, _ string) (domain.Retrieval, error) {
	return domain.Retrieval{}, nil
}

func (m *mockQueryService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}

type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) { return m.settings, m.err }
func (m *mockSettingsService) Save(*domain.AppSettings) error { return nil }
func (m *mockSettingsService) Set(string, string) error { return nil }
func (m *mockSettingsService) Keys() []string { return nil }
func (m *mockSettingsService) SetAPIKey(domain.AIProvider, string) error {
	return nil
}
func (m *mockSettingsService) Validate() error { return nil }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.AppSettings{} }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQueryService)
	assert.NoError(t, (&Ports{Query: &mockQueryService{}}).Validate())
}
