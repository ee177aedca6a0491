package domain

import (
	"fmt"
	"time"
)

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval is used when the task has no fixed time of day.
	Interval time.Duration

	// At is a local "HH:MM" time of day. When set the task runs daily.
	At string

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is the number of documents indexed.
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Interval defines how often the task should run when At is empty.
	Interval time.Duration

	// At is a local "HH:MM" time of day for daily tasks.
	At string
}

// NextRun returns the first run time strictly after from.
func (c TaskConfig) NextRun(from time.Time) (time.Time, error) {
	if c.At != "" {
		return NextDailyRun(from, c.At)
	}
	if c.Interval <= 0 {
		return time.Time{}, fmt.Errorf("%w: task has neither interval nor time of day", ErrInvalidInput)
	}
	return from.Add(c.Interval), nil
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultDailyAt is the time of day of the nightly reindex.
const DefaultDailyAt = "02:00"

// DefaultSchedulerConfig returns the nightly reindex schedule.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDWarehouseReindex: {
				Enabled: true,
				At:      DefaultDailyAt,
			},
		},
	}
}

// Task IDs for built-in tasks.
const (
	TaskIDWarehouseReindex = "warehouse-reindex"
)

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: time of day %q must be HH:MM", ErrInvalidInput, s)
	}
	return t.Hour(), t.Minute(), nil
}

// NextDailyRun returns the next occurrence of the "HH:MM" time of day
// strictly after from, in from's location.
func NextDailyRun(from time.Time, at string) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(at)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
