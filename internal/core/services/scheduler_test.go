package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// fixedNow is 2024-06-12 14:30 local time, after the daily 02:00 run.
var fixedNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.Local)

func newTestScheduler(store *mockSchedulerStore, indexer *mockIndexService) *Scheduler {
	s := NewScheduler(domain.DefaultSchedulerConfig(), store, indexer)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestNewScheduler(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	scheduler := NewScheduler(config, newMockSchedulerStore(), &mockIndexService{})

	require.NotNil(t, scheduler)
	assert.Equal(t, config.Enabled, scheduler.config.Enabled)
	assert.NotNil(t, scheduler.inflight)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	cancel()
	require.NoError(t, scheduler.Stop())
	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately
	assert.NoError(t, scheduler.Start(context.Background()))

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, &mockIndexService{})

	require.NoError(t, scheduler.initialiseTasks(context.Background()))

	task := store.task(domain.TaskIDWarehouseReindex)
	require.NotNil(t, task)
	assert.Equal(t, "Warehouse Reindex", task.Name)
	assert.Equal(t, domain.DefaultDailyAt, task.At)
	assert.True(t, task.Enabled)
	assert.Equal(t, time.Date(2024, 6, 13, 2, 0, 0, 0, time.Local), task.NextRun)
}

func TestScheduler_InitialiseTasks_Disabled(t *testing.T) {
	store := newMockSchedulerStore()
	cfg := domain.SchedulerConfig{Enabled: false, TaskConfigs: map[string]domain.TaskConfig{
		domain.TaskIDWarehouseReindex: {Enabled: false, At: "02:00"},
	}}
	scheduler := NewScheduler(cfg, store, &mockIndexService{})

	require.NoError(t, scheduler.initialiseTasks(context.Background()))
	assert.Nil(t, store.task(domain.TaskIDWarehouseReindex))
}

func TestScheduler_EnsureTask_ScheduleChange(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, &mockIndexService{})
	ctx := context.Background()

	require.NoError(t, scheduler.ensureTask(ctx, "t", "T", domain.TaskConfig{Enabled: true, At: "02:00"}))
	require.NoError(t, scheduler.ensureTask(ctx, "t", "T", domain.TaskConfig{Enabled: true, At: "23:15"}))

	task := store.task("t")
	assert.Equal(t, "23:15", task.At)
	assert.Equal(t, time.Date(2024, 6, 12, 23, 15, 0, 0, time.Local), task.NextRun)

	require.NoError(t, scheduler.ensureTask(ctx, "t", "T", domain.TaskConfig{Enabled: true, Interval: 2 * time.Hour}))
	task = store.task("t")
	assert.Empty(t, task.At)
	assert.Equal(t, 2*time.Hour, task.Interval)
	assert.Equal(t, fixedNow.Add(2*time.Hour), task.NextRun)
}

func TestScheduler_EnsureTask_KeepsNextRunWhenUnchanged(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, &mockIndexService{})
	ctx := context.Background()

	existing := fixedNow.Add(-time.Hour)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "t", At: "02:00", NextRun: existing}))

	require.NoError(t, scheduler.ensureTask(ctx, "t", "T", domain.TaskConfig{Enabled: true, At: "02:00"}))
	assert.Equal(t, existing, store.task("t").NextRun, "an overdue run must survive a restart")
}

func TestScheduler_EnsureTask_InvalidSchedule(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})

	err := scheduler.ensureTask(context.Background(), "t", "T", domain.TaskConfig{Enabled: true, At: "25:99"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScheduler_RunNow(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{report: domain.IndexReport{Documents: 1204}}
	scheduler := newTestScheduler(store, indexer)

	result, err := scheduler.RunNow(context.Background(), domain.TaskIDWarehouseReindex)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1204, result.ItemsProcessed)
	require.Len(t, indexer.calls, 1)
	assert.True(t, indexer.calls[0].Clear, "the nightly run rebuilds from scratch")

	task := store.task(domain.TaskIDWarehouseReindex)
	assert.Equal(t, fixedNow, task.LastRun)
	assert.Equal(t, fixedNow, task.LastSuccess)
	assert.Empty(t, task.LastError)
	assert.Equal(t, time.Date(2024, 6, 13, 2, 0, 0, 0, time.Local), task.NextRun)
	assert.Equal(t, 1, store.resultCount(domain.TaskIDWarehouseReindex))
}

func TestScheduler_RunNow_Failure(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{err: errors.New("warehouse unreachable")}
	scheduler := newTestScheduler(store, indexer)

	result, err := scheduler.RunNow(context.Background(), domain.TaskIDWarehouseReindex)
	require.NoError(t, err, "task failures are recorded, not returned")

	assert.False(t, result.Success)
	assert.Equal(t, "warehouse unreachable", result.Error)
	task := store.task(domain.TaskIDWarehouseReindex)
	assert.Equal(t, "warehouse unreachable", task.LastError)
	assert.True(t, task.LastSuccess.IsZero())
}

func TestScheduler_History(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{report: domain.IndexReport{Documents: 10}}
	scheduler := newTestScheduler(store, indexer)
	ctx := context.Background()

	_, err := scheduler.RunNow(ctx, domain.TaskIDWarehouseReindex)
	require.NoError(t, err)
	indexer.report = domain.IndexReport{Documents: 20}
	_, err = scheduler.RunNow(ctx, domain.TaskIDWarehouseReindex)
	require.NoError(t, err)

	history, err := scheduler.History(ctx, domain.TaskIDWarehouseReindex, 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 20, history[0].ItemsProcessed)
	assert.Equal(t, 10, history[1].ItemsProcessed)

	history, err = scheduler.History(ctx, domain.TaskIDWarehouseReindex, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = scheduler.History(ctx, domain.TaskIDWarehouseReindex, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestScheduler_RunNow_UnknownTask(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})

	_, err := scheduler.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduler_RunNow_StoreError(t *testing.T) {
	store := newMockSchedulerStore()
	store.getErr = errors.New("db locked")
	scheduler := newTestScheduler(store, &mockIndexService{})

	_, err := scheduler.RunNow(context.Background(), domain.TaskIDWarehouseReindex)
	assert.Error(t, err)
}

func TestScheduler_RunNow_RejectsOverlap(t *testing.T) {
	scheduler := newTestScheduler(newMockSchedulerStore(), &mockIndexService{})
	require.True(t, scheduler.claim(domain.TaskIDWarehouseReindex))
	defer scheduler.release(domain.TaskIDWarehouseReindex)

	_, err := scheduler.RunNow(context.Background(), domain.TaskIDWarehouseReindex)
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)
}

func TestScheduler_RunWarehouseReindex_NoIndexer(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)

	_, err := scheduler.runWarehouseReindex(context.Background())
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{report: domain.IndexReport{Documents: 3}}
	scheduler := newTestScheduler(store, indexer)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:      domain.TaskIDWarehouseReindex,
		At:      "02:00",
		NextRun: fixedNow.Add(-time.Minute),
		Enabled: true,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:      "future",
		At:      "02:00",
		NextRun: fixedNow.Add(time.Hour),
		Enabled: true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, indexer.callCount())
	assert.Equal(t, 1, store.resultCount(domain.TaskIDWarehouseReindex))
	assert.Zero(t, store.resultCount("future"))
}

func TestScheduler_CheckAndRunDueTasks_SkipsDisabled(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{}
	scheduler := newTestScheduler(store, indexer)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDWarehouseReindex, At: "02:00", NextRun: fixedNow.Add(-time.Hour),
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()
	assert.Zero(t, indexer.callCount())
}

func TestScheduler_LongRunIsNotStartedTwice(t *testing.T) {
	store := newMockSchedulerStore()
	indexer := &mockIndexService{block: make(chan struct{}), started: make(chan struct{}, 2)}
	scheduler := newTestScheduler(store, indexer)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDWarehouseReindex, At: "02:00", NextRun: fixedNow.Add(-time.Minute), Enabled: true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	<-indexer.started
	scheduler.checkAndRunDueTasks(ctx)

	close(indexer.block)
	scheduler.wg.Wait()
	assert.Equal(t, 1, indexer.callCount())
}

func TestScheduler_RunTask_UnknownTaskID(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := newTestScheduler(store, nil)

	task := &domain.ScheduledTask{ID: "unknown-task", Name: "Unknown", Enabled: true}

	scheduler.runTask(context.Background(), task)
	scheduler.wg.Wait()

	require.Equal(t, 1, store.resultCount("unknown-task"))
	assert.Contains(t, store.task("unknown-task").LastError, "unknown task ID")
}

func TestScheduler_RunNow_ScheduleDisabled(t *testing.T) {
	config := domain.DefaultSchedulerConfig()
	config.Enabled = false
	task := config.TaskConfigs[domain.TaskIDWarehouseReindex]
	task.Enabled = false
	config.TaskConfigs[domain.TaskIDWarehouseReindex] = task

	store := newMockSchedulerStore()
	indexer := &mockIndexService{report: domain.IndexReport{Documents: 7}}
	scheduler := NewScheduler(config, store, indexer)
	scheduler.now = func() time.Time { return fixedNow }

	result, err := scheduler.RunNow(context.Background(), domain.TaskIDWarehouseReindex)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 7, result.ItemsProcessed)
	assert.False(t, store.task(domain.TaskIDWarehouseReindex).Enabled, "stays off the nightly schedule")
}
