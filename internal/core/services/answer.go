package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Canned replies returned without calling the chat model.
const (
	MsgEmptyQuestion = "Please provide a question."
	MsgNoContext     = "I couldn't find any relevant information in the database to answer your question."
)

// Chat call settings for answer synthesis.
const (
	answerTemperature = 0.3
	answerMaxTokens   = 500
)

var answerRetry = retryPolicy{Attempts: 3, Base: time.Second}

// DefaultAnswerSystemPrompt is used when no prompt store is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultAnswerSystemPrompt = `You are a data assistant answering questions about a product and sales database.

Rules:
1. Answer ONLY from the context provided. Do not use outside knowledge.
2. If the answer is not in the context, say "I don't know".
3. Quote names, prices, counts and other values exactly as they appear in the context.
4. For totals, averages, highest, lowest, counts and rankings, use the Statistics and Summary sections of the context.
5. Be concise and direct.`

// DefaultAnswerUserPrompt wraps the context and the question, in that order.
const DefaultAnswerUserPrompt = `Context:
%s

Question: %s

Answer:`

// Synthesizer turns a question and its retrieved context into an answer
// using the chat model. It never returns an error; failures become
// user-visible text.
type Synthesizer struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	retry       retryPolicy
}

// Ensure Synthesizer accepts a prompt store.
var _ driven.PromptStoreAware = (*Synthesizer)(nil)

// NewSynthesizer creates a synthesizer. llm may be nil, in which case
// every question with context yields an error answer.
func NewSynthesizer(llm driven.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm, retry: answerRetry}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Answer produces an answer grounded in contextText.
func (s *Synthesizer) Answer(ctx context.Context, question, contextText string) (answer string) {
	if strings.TrimSpace(question) == "" {
		return MsgEmptyQuestion
	}
	if strings.TrimSpace(contextText) == "" {
		return MsgNoContext
	}
	if s.llm == nil {
		return fmt.Sprintf("Error generating answer: %v", domain.ErrLLMUnavailable)
	}

	defer func() {
		if r := recover(); r != nil {
			answer = fmt.Sprintf("Error generating answer: %v", r)
		}
	}()

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.loadPrompt(driven.PromptAnswerSystem, DefaultAnswerSystemPrompt)},
		{Role: driven.RoleUser, Content: fmt.Sprintf(s.userTemplate(), contextText, question)},
	}
	opts := driven.ChatOptions{MaxTokens: answerMaxTokens, Temperature: answerTemperature}

	logger.Section("Answer")
	logger.Debug("Model: %s, context %d chars", s.llm.ModelName(), len(contextText))

	var reply string
	retryable := func(err error) bool { return transientChatError(ctx, err) }
	err := retryWhile(ctx, s.retry, retryable, func() error {
		var err error
		reply, err = s.llm.Chat(ctx, messages, opts)
		return err
	})
	if err != nil {
		return fmt.Sprintf("Error generating answer: %v", err)
	}
	return strings.TrimSpace(reply)
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *Synthesizer) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// userTemplate loads the user prompt. A template that does not render the
// context and the question as two string arguments is replaced by the
// default.
func (s *Synthesizer) userTemplate() string {
	tmpl := s.loadPrompt(driven.PromptAnswerUser, DefaultAnswerUserPrompt)
	if tmpl == DefaultAnswerUserPrompt || validUserTemplate(tmpl) {
		return tmpl
	}
	logger.Warn("Prompt %s must use the context and the question as %%s arguments; using the default", driven.PromptAnswerUser)
	return DefaultAnswerUserPrompt
}

func validUserTemplate(tmpl string) bool {
	const ctxMark, questionMark = "\x00context\x00", "\x00question\x00"
	out := fmt.Sprintf(tmpl, ctxMark, questionMark)
	return !strings.Contains(out, "%!") &&
		strings.Count(out, ctxMark) == 1 &&
		strings.Count(out, questionMark) == 1
}

// transientChatError reports whether a failed chat call may succeed if
// repeated. A deadline only counts when it is the provider's own and the
// caller's context is still live.
func transientChatError(ctx context.Context, err error) bool {
	switch {
	case isRateLimited(err), errors.Is(err, domain.ErrLLMUnavailable):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return ctx.Err() == nil
	default:
		return false
	}
}
