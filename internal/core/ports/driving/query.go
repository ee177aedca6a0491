package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// QueryService answers natural-language questions about the warehouse.
type QueryService interface {
	// Ask retrieves context for the question and synthesises an answer.
	// Failures are reported inside the answer text, never as a panic.
	Ask(ctx context.Context, question string) (domain.Answer, error)

	// Retrieve returns the assembled context string for a question,
	// or "" when nothing relevant was found.
	Retrieve(ctx context.Context, question string) (string, error)

	// Explain returns the retrieval decisions for a question without
	// calling the chat model.
	Explain(ctx context.Context, question string) (domain.Retrieval, error)

	// Stats describes the vector index.
	Stats(ctx context.Context) domain.IndexStats
}
