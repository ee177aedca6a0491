package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// mockEmbeddingService embeds text as a 2-D vector chosen by keyword
// so tests can steer nearest-neighbour results.
type mockEmbeddingService struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	embedErr   error
	batchErrs  []error
	batchCalls int
	batchSizes []int
	inflight   int
	peak       int
	delay      time.Duration
}

func newMockEmbeddingService() *mockEmbeddingService {
	return &mockEmbeddingService{vectors: map[string][]float32{}}
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	for k, v := range m.vectors {
		if strings.Contains(text, k) {
			return v
		}
	}
	return []float32{1, 0}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	call := m.batchCalls
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	m.inflight++
	m.peak = max(m.peak, m.inflight)
	var err error
	if call < len(m.batchErrs) {
		err = m.batchErrs[call]
	}
	delay := m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = append([]float32{float32(len(t))}, m.vectorFor(t)...)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 2 }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error { return nil }

// mockVectorIndex is a scripted driven.VectorIndex.
type mockVectorIndex struct {
	mu          sync.Mutex
	entries     []domain.IndexEntry
	searchHits  []domain.ContextChunk
	byMetadata  func(filter map[string]any) []domain.ContextChunk
	searchErr   error
	metaErr     error
	countErr    error
	countDelay  time.Duration
	clearErr    error
	addErr      error
	lastK       int
	metaFilters []map[string]any
	clears      int
}

func (m *mockVectorIndex) Add(_ context.Context, entries ...domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]domain.ContextChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := m.searchHits
	if len(hits) > k {
		hits = hits[:k]
	}
	return append([]domain.ContextChunk(nil), hits...), nil
}

func (m *mockVectorIndex) GetByMetadata(_ context.Context, filter map[string]any, limit int) ([]domain.ContextChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metaFilters = append(m.metaFilters, filter)
	if m.metaErr != nil {
		return nil, m.metaErr
	}
	if m.byMetadata == nil {
		return nil, nil
	}
	got := m.byMetadata(filter)
	if len(got) > limit {
		got = got[:limit]
	}
	return got, nil
}

func (m *mockVectorIndex) Count(ctx context.Context) (int, error) {
	if m.countDelay > 0 {
		// Ignores ctx on purpose to prove callers do not wait.
		time.Sleep(m.countDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.entries), nil
}

func (m *mockVectorIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clears++
	m.entries = nil
	return nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockLLMService records chat calls and replies from a script.
type mockLLMService struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	calls    int
	messages [][]driven.ChatMessage
	opts     []driven.ChatOptions
	panicMsg string
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	call := m.calls
	m.calls++
	m.messages = append(m.messages, messages)
	m.opts = append(m.opts, opts)
	if call < len(m.errs) && m.errs[call] != nil {
		return "", m.errs[call]
	}
	if call < len(m.replies) {
		return m.replies[call], nil
	}
	if len(m.replies) > 0 {
		return m.replies[len(m.replies)-1], nil
	}
	return "ok", nil
}

func (m *mockLLMService) ModelName() string { return "mock-chat" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRowSource serves tables from a map.
type mockRowSource struct {
	tables  map[string]domain.TableData
	errs    map[string]error
	pingErr error
	reads   []string
}

func (m *mockRowSource) ReadTable(_ context.Context, table string) (domain.TableData, error) {
	m.reads = append(m.reads, table)
	if err := m.errs[table]; err != nil {
		return domain.TableData{}, err
	}
	td, ok := m.tables[table]
	if !ok {
		return domain.TableData{}, domain.ErrNotFound
	}
	return td, nil
}

func (m *mockRowSource) Ping(_ context.Context) error { return m.pingErr }
func (m *mockRowSource) Close() error { return nil }

// mockAssembler renders one document per row with the row's "text" column.
type mockAssembler struct {
	skipped int
}

func (m *mockAssembler) Assemble(tables []domain.TableData) ([]domain.Document, driven.AssembleReport) {
	var docs []domain.Document
	for _, td := range tables {
		for _, r := range td.Rows {
			text, _ := r.Get("text")
			s, _ := text.(string)
			docs = append(docs, domain.Document{
				ID:       td.Name + "-" + s,
				Text:     s,
				Metadata: map[string]any{domain.MetaTable: td.Name, domain.MetaType: "record"},
			})
		}
	}
	return docs, driven.AssembleReport{Tables: len(tables), Documents: len(docs), SkippedRows: m.skipped}
}

// mockIndexService implements driving.IndexService for scheduler tests.
type mockIndexService struct {
	mu      sync.Mutex
	calls   []domain.IndexOptions
	report  domain.IndexReport
	err     error
	block   chan struct{}
	started chan struct{}
}

func (m *mockIndexService) Index(ctx context.Context, opts domain.IndexOptions, _ domain.IndexObserver) (domain.IndexReport, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	block, started := m.block, m.started
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.IndexReport{}, ctx.Err()
		}
	}
	return m.report, m.err
}

func (m *mockIndexService) Reset(_ context.Context) error { return nil }

func (m *mockIndexService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []domain.TaskResult
	for i := len(m.results[taskID]) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, m.results[taskID][i])
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

func (m *mockSchedulerStore) task(id string) *domain.ScheduledTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func (m *mockSchedulerStore) resultCount(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results[id])
}

// mockAIValidator records validation calls.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedded     *domain.EmbeddingSettings
	llm          *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedded = cfg
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	m.llm = cfg
	return m.llmErr
}

// chunk builds a context chunk of the given type.
func chunk(id string, t domain.DocType, meta ...any) domain.ContextChunk {
	m := map[string]any{domain.MetaType: string(t)}
	for i := 0; i+1 < len(meta); i += 2 {
		m[meta[i].(string)] = meta[i+1]
	}
	return domain.ContextChunk{ID: id, Text: "text of " + id, Metadata: m}
}

func chunkIDs(chunks []domain.ContextChunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}

// Ensure mocks implement interfaces.
var (
	_ driven.EmbeddingService  = (*mockEmbeddingService)(nil)
	_ driven.VectorIndex       = (*mockVectorIndex)(nil)
	_ driven.LLMService        = (*mockLLMService)(nil)
	_ driven.PromptStore       = (*mockPromptStore)(nil)
	_ driven.RowSource         = (*mockRowSource)(nil)
	_ driven.DocumentAssembler = (*mockAssembler)(nil)
	_ driven.SchedulerStore    = (*mockSchedulerStore)(nil)
	_ driven.AIConfigValidator = (*mockAIValidator)(nil)
	_ driving.IndexService     = (*mockIndexService)(nil)
)
