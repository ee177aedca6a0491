package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions by retrieving context and synthesising
// an answer from it.
type QueryService struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	index       driven.VectorIndex
	collection  string
	cfg         domain.RetrievalSettings
}

// NewQueryService creates a query service over an index.
// embedder, index and llm may each be nil; questions then degrade to
// canned or error answers.
func NewQueryService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	collection string,
	cfg domain.RetrievalSettings,
) *QueryService {
	r := NewRetriever(embedder, index, cfg)
	return &QueryService{
		retriever:   r,
		synthesizer: NewSynthesizer(llm),
		index:       index,
		collection:  collection,
		cfg:         r.cfg,
	}
}

// SetPromptStore passes a prompt store through to the synthesizer.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.synthesizer.SetPromptStore(store)
}

// Ask retrieves context for the question and synthesises an answer.
func (s *QueryService) Ask(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	ans := domain.Answer{Question: question}
	if question == "" {
		ans.Answer = MsgEmptyQuestion
		return ans, nil
	}

	retrieval, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return ans, err
	}
	ans.ContextDocs = len(retrieval.Chunks)
	ans.Answer = s.synthesizer.Answer(ctx, question, retrieval.Context)
	return ans, nil
}

// Retrieve returns the context string for a question.
func (s *QueryService) Retrieve(ctx context.Context, question string) (string, error) {
	retrieval, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	return retrieval.Context, nil
}

// Explain returns the retrieval decisions for a question.
func (s *QueryService) Explain(ctx context.Context, question string) (domain.Retrieval, error) {
	return s.retriever.Retrieve(ctx, question)
}

// Stats describes the vector index. The count is bounded by the
// configured count timeout and reported unavailable when it expires.
func (s *QueryService) Stats(ctx context.Context) domain.IndexStats {
	stats := domain.IndexStats{Collection: s.collection, DocumentCount: -1}
	if s.index == nil {
		return stats
	}
	stats.DocumentCount = countWithDeadline(ctx, s.index, s.cfg.CountTimeout)
	stats.CountAvailable = stats.DocumentCount >= 0
	return stats
}
