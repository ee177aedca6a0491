package driven

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// VectorIndex stores embedded documents and finds the nearest ones to a
// query vector.
type VectorIndex interface {
	// Add inserts entries. Existing IDs are replaced.
	Add(ctx context.Context, entries ...domain.IndexEntry) error

	// Search returns up to k chunks ordered by ascending cosine distance.
	Search(ctx context.Context, query []float32, k int) ([]domain.ContextChunk, error)

	// GetByMetadata returns up to limit chunks whose metadata matches every
	// key in filter exactly, in insertion order.
	GetByMetadata(ctx context.Context, filter map[string]any, limit int) ([]domain.ContextChunk, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}
