package services

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyWarehouseDriver = "warehouse.driver"
	keyWarehouseDSN    = "warehouse.dsn"
	keyWarehouseTables = "warehouse.tables"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"

	keyIndexBackend    = "index.backend"
	keyIndexPath       = "index.path"
	keyIndexCollection = "index.collection"

	keyDefaultTopK     = "retrieval.default_top_k"
	keyAggregationTopK = "retrieval.aggregation_top_k"
	keyMaxContextDocs  = "retrieval.max_context_docs"
	keyCountTimeout    = "retrieval.count_timeout"

	keyBatchSize         = "indexing.batch_size"
	keyWorkers           = "indexing.workers"
	keyMaxRetries        = "indexing.max_retries"
	keyRequestsPerSecond = "indexing.requests_per_second"

	keySchedulerEnabled = "scheduler.enabled"
	keySchedulerDailyAt = "scheduler.daily_at"

	keyServerAddr = "server.addr"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvWarehouseDriver = "QUARRY_WAREHOUSE_DRIVER"
	EnvWarehouseDSN    = "QUARRY_WAREHOUSE_DSN"
	EnvIndexPath       = "QUARRY_INDEX_PATH"

	EnvMSSQLServer    = "MSSQL_SERVER"
	EnvMSSQLPort      = "MSSQL_PORT"
	EnvMSSQLDatabase  = "MSSQL_DATABASE"
	EnvMSSQLUser      = "MSSQL_UID"
	EnvMSSQLPassword  = "MSSQL_PWD"
	EnvMSSQLTrustCert = "MSSQL_TRUST_SERVER_CERTIFICATE"
)

// settingKeys lists every key accepted by Set, in display order.
var settingKeys = []string{
	keyWarehouseDriver, keyWarehouseDSN, keyWarehouseTables,
	keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
	keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
	keyIndexBackend, keyIndexPath, keyIndexCollection,
	keyDefaultTopK, keyAggregationTopK, keyMaxContextDocs, keyCountTimeout,
	keyBatchSize, keyWorkers, keyMaxRetries, keyRequestsPerSecond,
	keySchedulerEnabled, keySchedulerDailyAt,
	keyServerAddr,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.fromStore()
	s.applyEnv(settings)
	return settings, nil
}

// fromStore reads the config file only, filling gaps with defaults.
func (s *SettingsService) fromStore() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Warehouse: domain.WarehouseSettings{
			Driver: domain.WarehouseDriver(s.getString(keyWarehouseDriver, string(defaults.Warehouse.Driver))),
			DSN:    s.configStore.GetString(keyWarehouseDSN),
			Tables: s.getStringSlice(keyWarehouseTables, defaults.Warehouse.Tables),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Index: domain.IndexSettings{
			Backend:    domain.IndexBackend(s.getString(keyIndexBackend, string(defaults.Index.Backend))),
			Path:       s.configStore.GetString(keyIndexPath),
			Collection: s.getString(keyIndexCollection, defaults.Index.Collection),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultTopK:     s.getInt(keyDefaultTopK, defaults.Retrieval.DefaultTopK),
			AggregationTopK: s.getInt(keyAggregationTopK, defaults.Retrieval.AggregationTopK),
			MaxContextDocs:  s.getInt(keyMaxContextDocs, defaults.Retrieval.MaxContextDocs),
			CountTimeout:    s.getDuration(keyCountTimeout, defaults.Retrieval.CountTimeout),
		},
		Indexing: domain.IndexingSettings{
			BatchSize:         s.getInt(keyBatchSize, defaults.Indexing.BatchSize),
			Workers:           s.getInt(keyWorkers, defaults.Indexing.Workers),
			MaxRetries:        s.getInt(keyMaxRetries, defaults.Indexing.MaxRetries),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, defaults.Indexing.RequestsPerSecond),
		},
		Scheduler: domain.SchedulerSettings{
			Enabled: s.getBool(keySchedulerEnabled, defaults.Scheduler.Enabled),
			DailyAt: s.getString(keySchedulerDailyAt, defaults.Scheduler.DailyAt),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	keyFor := func(p domain.AIProvider) string {
		switch p {
		case domain.AIProviderOpenAI:
			return s.getenv(EnvOpenAIAPIKey)
		case domain.AIProviderAnthropic:
			return s.getenv(EnvAnthropicAPIKey)
		default:
			return ""
		}
	}
	if k := keyFor(settings.Embedding.Provider); k != "" {
		settings.Embedding.APIKey = k
	}
	if k := keyFor(settings.LLM.Provider); k != "" {
		settings.LLM.APIKey = k
	}

	if d := s.getenv(EnvWarehouseDriver); d != "" {
		settings.Warehouse.Driver = domain.WarehouseDriver(strings.ToLower(d))
	}
	if dsn := s.getenv(EnvWarehouseDSN); dsn != "" {
		settings.Warehouse.DSN = dsn
	} else if dsn := s.mssqlDSN(); dsn != "" {
		settings.Warehouse.Driver = domain.WarehouseDriverSQLServer
		settings.Warehouse.DSN = dsn
	}

	if p := s.getenv(EnvIndexPath); p != "" {
		settings.Index.Path = p
	}
}

// mssqlDSN builds a sqlserver:// DSN from the MSSQL_* variables.
// Returns "" unless both server and database are set.
func (s *SettingsService) mssqlDSN() string {
	server := s.getenv(EnvMSSQLServer)
	database := s.getenv(EnvMSSQLDatabase)
	if server == "" || database == "" {
		return ""
	}
	port := s.getenv(EnvMSSQLPort)
	if port == "" {
		port = "1433"
	}

	q := url.Values{}
	q.Set("database", database)
	trust := s.getenv(EnvMSSQLTrustCert)
	if trust == "" || strings.EqualFold(trust, "yes") || strings.EqualFold(trust, "true") {
		q.Set("TrustServerCertificate", "true")
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(server, port),
		RawQuery: q.Encode(),
	}
	if user := s.getenv(EnvMSSQLUser); user != "" {
		u.User = url.UserPassword(user, s.getenv(EnvMSSQLPassword))
	}
	return u.String()
}

// Save persists application settings. API keys are only written when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyWarehouseDriver, string(settings.Warehouse.Driver)},
		{keyWarehouseDSN, settings.Warehouse.DSN},
		{keyWarehouseTables, settings.Warehouse.Tables},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyIndexBackend, string(settings.Index.Backend)},
		{keyIndexPath, settings.Index.Path},
		{keyIndexCollection, settings.Index.Collection},
		{keyDefaultTopK, settings.Retrieval.DefaultTopK},
		{keyAggregationTopK, settings.Retrieval.AggregationTopK},
		{keyMaxContextDocs, settings.Retrieval.MaxContextDocs},
		{keyCountTimeout, settings.Retrieval.CountTimeout.String()},
		{keyBatchSize, settings.Indexing.BatchSize},
		{keyWorkers, settings.Indexing.Workers},
		{keyMaxRetries, settings.Indexing.MaxRetries},
		{keyRequestsPerSecond, settings.Indexing.RequestsPerSecond},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keySchedulerDailyAt, settings.Scheduler.DailyAt},
		{keyServerAddr, settings.Server.Addr},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Keys lists every supported key in display order.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// Set parses and stores a single setting.
//
//nolint:gocyclo // One case per key
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var stored any = value

	switch key {
	case keyWarehouseDriver:
		if !domain.WarehouseDriver(value).IsValid() {
			return fmt.Errorf("%w: warehouse driver must be sqlserver or sqlite", domain.ErrInvalidInput)
		}
	case keyWarehouseTables:
		var tables []string
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
		if len(tables) == 0 {
			return fmt.Errorf("%w: at least one table is required", domain.ErrInvalidInput)
		}
		stored = tables
	case keyEmbedProvider:
		if !slices.Contains(domain.AllEmbeddingProviders(), domain.AIProvider(value)) {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, value)
		}
		current := string(s.fromStore().Embedding.Provider)
		if err := s.switchModel(current, value, keyEmbedModel, domain.DefaultEmbeddingModels()); err != nil {
			return err
		}
	case keyLLMProvider:
		if !slices.Contains(domain.AllLLMProviders(), domain.AIProvider(value)) {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, value)
		}
		current := string(s.fromStore().LLM.Provider)
		if err := s.switchModel(current, value, keyLLMModel, domain.DefaultLLMModels()); err != nil {
			return err
		}
	case keyIndexBackend:
		if b := domain.IndexBackend(value); b != domain.IndexBackendSQLite && b != domain.IndexBackendMemory {
			return fmt.Errorf("%w: index backend must be sqlite or memory", domain.ErrInvalidInput)
		}
	case keyDefaultTopK, keyAggregationTopK, keyMaxContextDocs, keyWorkers, keyMaxRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		stored = n
	case keyBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || n > domain.MaxBatchSize {
			return fmt.Errorf("%w: %s must be between 1 and %d", domain.ErrInvalidInput, key, domain.MaxBatchSize)
		}
		stored = n
	case keyRequestsPerSecond:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		stored = f
	case keyCountTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration such as 2s", domain.ErrInvalidInput, key)
		}
	case keySchedulerEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		stored = b
	case keySchedulerDailyAt:
		if _, _, err := domain.ParseTimeOfDay(value); err != nil {
			return err
		}
	case keyWarehouseDSN, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyIndexPath, keyIndexCollection, keyServerAddr:
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.configStore.Set(key, stored)
}

// switchModel resets the model key to the new provider's default when the
// provider changes. Model names do not carry over between providers.
func (s *SettingsService) switchModel(from, to, modelKey string, defaults map[domain.AIProvider]string) error {
	if from == to {
		return nil
	}
	model, ok := defaults[domain.AIProvider(to)]
	if !ok {
		return nil
	}
	if err := s.configStore.Set(modelKey, model); err != nil {
		return fmt.Errorf("save %s: %w", modelKey, err)
	}
	return nil
}

// SetAPIKey stores the key for every AI role using provider.
func (s *SettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, provider)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.fromStore()
	stored := false
	if settings.Embedding.Provider == provider {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
		stored = true
	}
	if settings.LLM.Provider == provider {
		if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
		stored = true
	}
	if !stored {
		return fmt.Errorf("%w: %s is not configured as the embedding or LLM provider", domain.ErrInvalidInput, provider)
	}
	return nil
}

// Validate checks the settings are complete enough to index and answer.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Warehouse.Driver.IsValid() {
		return fmt.Errorf("invalid warehouse driver: %s", settings.Warehouse.Driver)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if b := settings.Index.Backend; b != domain.IndexBackendSQLite && b != domain.IndexBackendMemory {
		return fmt.Errorf("invalid index backend: %s", b)
	}
	if settings.Scheduler.Enabled {
		if _, _, err := domain.ParseTimeOfDay(settings.Scheduler.DailyAt); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetSchedulerConfig returns the scheduler configuration for the nightly reindex.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	settings := s.fromStore()
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = settings.Scheduler.Enabled

	task := cfg.TaskConfigs[domain.TaskIDWarehouseReindex]
	task.Enabled = settings.Scheduler.Enabled
	task.At = settings.Scheduler.DailyAt
	cfg.TaskConfigs[domain.TaskIDWarehouseReindex] = task
	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
