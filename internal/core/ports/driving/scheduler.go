package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// Scheduler runs the nightly warehouse reindex.
type Scheduler interface {
	// Start blocks until ctx is cancelled, running tasks as they fall due.
	Start(ctx context.Context) error

	// Stop waits for in-flight runs to finish.
	Stop() error

	// RunNow executes a task immediately and records the result.
	RunNow(ctx context.Context, taskID string) (*domain.TaskResult, error)

	// History returns the most recent runs of a task, newest first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
