package cli

import (
	"bytes"
	"context"
	"sync"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/logger"
)

// mockQueryService returns canned answers.
type mockQueryService struct {
	answer    domain.Answer
	retrieval domain.Retrieval
	stats     domain.IndexStats
	err       error
	questions []string
}

func (m *mockQueryService) Ask(_ context.Context, question string) (domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	a := m.answer
	a.Question = question
	return a, nil
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string) (string, error) {
	return m.retrieval.Context, m.err
}

func (m *mockQueryService) Explain(_ context.Context, question string) (domain.Retrieval, error) {
	m.questions = append(m.questions, question)
	return m.retrieval, m.err
}

func (m *mockQueryService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}

// mockIndexService replays events to the observer and returns a report.
type mockIndexService struct {
	events []domain.IndexEvent
	report domain.IndexReport
	err    error

	opts   []domain.IndexOptions
	resets int
}

func (m *mockIndexService) Index(
	_ context.Context, opts domain.IndexOptions, observer domain.IndexObserver,
) (domain.IndexReport, error) {
	m.opts = append(m.opts, opts)
	for _, ev := range m.events {
		if observer != nil {
			observer(ev)
		}
	}
	return m.report, m.err
}

func (m *mockIndexService) Reset(_ context.Context) error {
	m.resets++
	return m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings    domain.AppSettings
	set         map[string]string
	apiKeys     map[domain.AIProvider]string
	setErr      error
	validateErr error
	embedErr    error
	llmErr      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		set:      make(map[string]string),
		apiKeys:  make(map[domain.AIProvider]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"warehouse.driver", "warehouse.dsn", "retrieval.default_top_k"}
}

func (m *mockSettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	m.apiKeys[provider] = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.embedErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.llmErr }

// mockScheduler records calls. Start blocks until ctx is done.
type mockScheduler struct {
	mu      sync.Mutex
	result  *domain.TaskResult
	err     error
	runNow  []string
	history []domain.TaskResult
	started bool
	stopped int
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return nil
}

func (m *mockScheduler) RunNow(_ context.Context, taskID string) (*domain.TaskResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runNow = append(m.runNow, taskID)
	return m.result, m.err
}

func (m *mockScheduler) History(_ context.Context, _ string, limit int) ([]domain.TaskResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	query     *mockQueryService
	index     *mockIndexService
	settings  *mockSettingsService
	scheduler *mockScheduler
}

// setupTestServices installs fresh mocks and resets flag state left over
// from earlier executions. The returned function restores the defaults.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		query: &mockQueryService{
			answer: domain.Answer{Answer: "The Road-150 Red, 62 lists at 3578.27.", ContextDocs: 3},
			stats:  domain.IndexStats{Collection: "warehouse", DocumentCount: 1204, CountAvailable: true},
		},
		index:     &mockIndexService{},
		settings:  newMockSettingsService(),
		scheduler: &mockScheduler{},
	}
	SetServices(Services{
		Query:           ts.query,
		Index:           ts.index,
		Settings:        ts.settings,
		Scheduler:       ts.scheduler,
		SchedulerConfig: domain.DefaultSchedulerConfig(),
	})
	resetFlags()

	return ts, func() {
		SetServices(Services{})
		resetFlags()
	}
}

func resetFlags() {
	askExplain = false
	statsJSON = false
	serveAddr = ""
	mcpHTTPAddr = ""
	scheduleRunOnce = false
	scheduleHistory = 0
	verbose = false
	quiet = false
	logger.SetTimestamps(false)
	_ = indexCmd.Flags().Set("clear", "false")
	_ = indexCmd.Flags().Set("reset", "false")
	if f := indexCmd.Flags().Lookup("table"); f != nil {
		_ = f.Value.(interface{ Replace([]string) error }).Replace(nil)
		f.Changed = false
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
