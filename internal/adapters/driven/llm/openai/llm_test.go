package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	svc, err := NewLLMService(LLMConfig{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestChat(t *testing.T) {
	var got map[string]any
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"There are 42 red products."},"finish_reason":"stop"}]}`))
	})

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "You are an analyst."},
		{Role: driven.RoleUser, Content: "How many red products?"},
	}, driven.ChatOptions{MaxTokens: 500, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "There are 42 red products.", reply)

	assert.Equal(t, DefaultLLMModel, got["model"])
	assert.Equal(t, 500.0, got["max_tokens"])
	assert.Equal(t, 0.3, got["temperature"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestChat_OmitsUnsetOptions(t *testing.T) {
	var got map[string]any
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "max_tokens")
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", 429, `{"error":{"message":"Rate limit reached","code":"rate_limit_exceeded"}}`, domain.ErrRateLimited},
		{"quota", 429, `{"error":{"message":"exceeded quota","code":"insufficient_quota"}}`, domain.ErrQuotaExceeded},
		{"outage", 502, `bad gateway`, domain.ErrLLMUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChat_NoChoices(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "no response choices")
}

func TestPing(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	})
	assert.ErrorContains(t, svc.Ping(context.Background()), "Incorrect API key")
	assert.NoError(t, svc.Close())
}
