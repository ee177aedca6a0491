package driven

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// RowSource reads tables from the relational warehouse.
type RowSource interface {
	// ReadTable returns every row of the named table in source order.
	ReadTable(ctx context.Context, table string) (domain.TableData, error)

	// Ping validates the warehouse is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
