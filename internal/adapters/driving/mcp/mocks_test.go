package mcp

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    string
	context   string
	stats     domain.IndexStats
	err       error
	questions []string
}

func (m *mockQueryService) Ask(_ context.Context, question string) (domain.Answer, error) {
	m.questions = append(m.questions, question)
	return domain.Answer{Question: question, Answer: m.answer}, m.err
}

func (m *mockQueryService) Retrieve(_ context.Context, question string) (string, error) {
	m.questions = append(m.questions, question)
	return m.context, m.err
}

func (m *mockQueryService) Explain(_ context.Context, _ string) (domain.Retrieval, error) {
	return domain.Retrieval{}, m.err
}

func (m *mockQueryService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}
