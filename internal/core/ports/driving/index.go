package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// IndexService rebuilds the vector index from the warehouse.
type IndexService interface {
	// Index runs a full read, assemble, embed and store pass.
	// Progress is reported through observer, which may be nil.
	// Returns domain.ErrIndexInProgress if a run is already active.
	Index(ctx context.Context, opts domain.IndexOptions, observer domain.IndexObserver) (domain.IndexReport, error)

	// Reset drops every stored document without reindexing.
	Reset(ctx context.Context) error
}
