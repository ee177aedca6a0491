package driven

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// SchedulerStore keeps the reindex task and its run history across
// process restarts.
type SchedulerStore interface {
	// GetTask returns nil, nil for an unknown ID.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every registered task in no particular order.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask upserts by task ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends one run to the history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns at most limit runs, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep runs of each task.
	PruneHistory(ctx context.Context, keep int) error
}
