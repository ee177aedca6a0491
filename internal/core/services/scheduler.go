package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// historyKeep is how many runs of each task the store retains.
const historyKeep = 100

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	indexer driving.IndexService
	now     func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	inflight map[string]bool
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	indexer driving.IndexService,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		indexer:  indexer,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// RunNow executes a task immediately, outside its schedule, and records
// the result. Used by `schedule --run-once`.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) (*domain.TaskResult, error) {
	if err := s.initialiseTasks(ctx); err != nil {
		return nil, fmt.Errorf("initialise tasks: %w", err)
	}
	if taskID == domain.TaskIDWarehouseReindex {
		// Registered disabled when the nightly schedule is off.
		if err := s.ensureTask(ctx, taskID, "Warehouse Reindex", s.config.GetTaskConfig(taskID)); err != nil {
			return nil, fmt.Errorf("initialise tasks: %w", err)
		}
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	if !s.claim(taskID) {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrIndexInProgress)
	}
	defer s.release(taskID)

	return s.execute(ctx, task), nil
}

// History returns up to limit recorded runs of taskID, newest first.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: history limit must be positive", domain.ErrInvalidInput)
	}
	results, err := s.store.GetTaskHistory(ctx, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("task history: %w", err)
	}
	return results, nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDWarehouseReindex); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDWarehouseReindex, "Warehouse Reindex", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if task == nil {
		next, err := cfg.NextRun(now)
		if err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			At:       cfg.At,
			Enabled:  cfg.Enabled,
			NextRun:  next,
		}
	} else {
		// Recalculate next run from now if the schedule changed
		if task.Interval != cfg.Interval || task.At != cfg.At {
			next, err := cfg.NextRun(now)
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			task.Interval = cfg.Interval
			task.At = cfg.At
			task.NextRun = next
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task in the background. A task still running
// from a previous tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	if !s.claim(task.ID) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(task.ID)
		s.execute(ctx, task)
	}()
}

// execute runs the task, then updates its state and history in the store.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) *domain.TaskResult {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDWarehouseReindex:
		result.ItemsProcessed, err = s.runWarehouseReindex(ctx)
	default:
		err = fmt.Errorf("unknown task ID: %s", task.ID)
	}

	result.EndedAt = s.now()
	if err != nil {
		logger.Warn("scheduler: task %s failed: %v", task.ID, err)
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	cfg := domain.TaskConfig{Interval: task.Interval, At: task.At}
	if next, nerr := cfg.NextRun(result.EndedAt); nerr == nil {
		task.NextRun = next
	} else {
		logger.Warn("scheduler: task %s: %v", task.ID, nerr)
	}

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}

	// Record result for history
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}

	// Prune old history (keep last 100 results per task)
	if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
		logger.Warn("scheduler: failed to prune history: %v", pruneErr)
	}

	return result
}

// runWarehouseReindex clears and rebuilds the index from the warehouse.
func (s *Scheduler) runWarehouseReindex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}
	report, err := s.indexer.Index(ctx, domain.IndexOptions{Clear: true}, nil)
	if err != nil {
		return 0, err
	}
	return report.Documents, nil
}

func (s *Scheduler) claim(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[taskID] {
		return false
	}
	s.inflight[taskID] = true
	return true
}

func (s *Scheduler) release(taskID string) {
	s.mu.Lock()
	delete(s.inflight, taskID)
	s.mu.Unlock()
}
