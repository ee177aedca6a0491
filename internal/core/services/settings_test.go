package services

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quarry/internal/core/domain"
)

// newTestSettings returns a settings service over an empty in-memory
// store with the given environment.
func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	svc.getenv = func(k string) string { return env[k] }
	return svc, store
}

func TestNewSettingsService(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore(), nil)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.getenv)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, &defaults, settings)
	assert.False(t, settings.Embedding.IsConfigured(), "no API key yet")
	assert.False(t, settings.Warehouse.IsConfigured(), "no DSN yet")
}

func TestSettingsService_Get_ReadsStoredValues(t *testing.T) {
	svc, store := newTestSettings(nil)
	for k, v := range map[string]any{
		"warehouse.driver":             "sqlite",
		"warehouse.dsn":                "file:dw.db",
		"warehouse.tables":             []any{"DimProduct", "FactInternetSales"},
		"embedding.provider":           "ollama",
		"embedding.model":              "all-minilm",
		"embedding.base_url":           "http://gpu:11434",
		"llm.provider":                 "anthropic",
		"llm.api_key":                  "sk-ant",
		"index.backend":                "memory",
		"index.collection":             "dw",
		"retrieval.default_top_k":      int64(20),
		"retrieval.count_timeout":      "500ms",
		"indexing.requests_per_second": 2.5,
		"indexing.workers":             int64(8),
		"scheduler.enabled":            false,
		"scheduler.daily_at":           "04:30",
		"server.addr":                  "127.0.0.1:9000",
	} {
		require.NoError(t, store.Set(k, v))
	}

	s, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.WarehouseDriverSQLite, s.Warehouse.Driver)
	assert.Equal(t, "file:dw.db", s.Warehouse.DSN)
	assert.Equal(t, []string{"DimProduct", "FactInternetSales"}, s.Warehouse.Tables)
	assert.Equal(t, domain.AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, "http://gpu:11434", s.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
	assert.Equal(t, "sk-ant", s.LLM.APIKey)
	assert.Equal(t, domain.IndexBackendMemory, s.Index.Backend)
	assert.Equal(t, "dw", s.Index.Collection)
	assert.Equal(t, 20, s.Retrieval.DefaultTopK)
	assert.Equal(t, domain.DefaultAggregationTopK, s.Retrieval.AggregationTopK)
	assert.Equal(t, 500*time.Millisecond, s.Retrieval.CountTimeout)
	assert.Equal(t, 2.5, s.Indexing.RequestsPerSecond)
	assert.Equal(t, 8, s.Indexing.Workers)
	assert.False(t, s.Scheduler.Enabled)
	assert.Equal(t, "04:30", s.Scheduler.DailyAt)
	assert.Equal(t, "127.0.0.1:9000", s.Server.Addr)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, store := newTestSettings(nil)
	require.NoError(t, store.Set("embedding.provider", "invalid"))
	require.NoError(t, store.Set("retrieval.count_timeout", "soon"))
	require.NoError(t, store.Set("indexing.requests_per_second", "fast"))

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, s.Embedding.Provider)
	assert.Equal(t, domain.DefaultCountTimeout, s.Retrieval.CountTimeout)
	assert.Equal(t, domain.DefaultAppSettings().Indexing.RequestsPerSecond, s.Indexing.RequestsPerSecond)
}

func TestSettingsService_Get_EnvAPIKeys(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		EnvOpenAIAPIKey:    "sk-openai",
		EnvAnthropicAPIKey: "sk-ant",
	})
	require.NoError(t, store.Set("embedding.api_key", "from-file"))
	require.NoError(t, store.Set("llm.provider", "anthropic"))

	s, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", s.Embedding.APIKey, "environment overrides the file")
	assert.Equal(t, "sk-ant", s.LLM.APIKey, "each role takes its own provider's key")
	assert.True(t, s.Embedding.IsConfigured())
	assert.True(t, s.LLM.IsConfigured())
}

func TestSettingsService_Get_EnvIgnoredForLocalProvider(t *testing.T) {
	svc, store := newTestSettings(map[string]string{EnvOpenAIAPIKey: "sk-openai"})
	require.NoError(t, store.Set("llm.provider", "ollama"))

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Empty(t, s.LLM.APIKey)
}

func TestSettingsService_Get_EnvWarehouse(t *testing.T) {
	svc, _ := newTestSettings(map[string]string{
		EnvWarehouseDriver: "SQLite",
		EnvWarehouseDSN:    "file:/data/dw.db",
		EnvIndexPath:       "/var/lib/quarry",
		EnvMSSQLServer:     "ignored",
		EnvMSSQLDatabase:   "ignored",
	})

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.WarehouseDriverSQLite, s.Warehouse.Driver)
	assert.Equal(t, "file:/data/dw.db", s.Warehouse.DSN)
	assert.Equal(t, "/var/lib/quarry", s.Index.Path)
}

func TestSettingsService_Get_MSSQLEnvironment(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		EnvMSSQLServer:   "db.local",
		EnvMSSQLDatabase: "AdventureWorksDW2022",
		EnvMSSQLUser:     "sa",
		EnvMSSQLPassword: "p@ss:word",
	})
	require.NoError(t, store.Set("warehouse.driver", "sqlite"))

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.WarehouseDriverSQLServer, s.Warehouse.Driver)

	u, err := url.Parse(s.Warehouse.DSN)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "db.local:1433", u.Host)
	assert.Equal(t, "sa", u.User.Username())
	pwd, _ := u.User.Password()
	assert.Equal(t, "p@ss:word", pwd)
	assert.Equal(t, "AdventureWorksDW2022", u.Query().Get("database"))
	assert.Equal(t, "true", u.Query().Get("TrustServerCertificate"))
}

func TestSettingsService_MSSQLDSN(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing server", map[string]string{EnvMSSQLDatabase: "dw"}, ""},
		{"missing database", map[string]string{EnvMSSQLServer: "h"}, ""},
		{
			"custom port without trust",
			map[string]string{EnvMSSQLServer: "h", EnvMSSQLDatabase: "dw", EnvMSSQLPort: "14330", EnvMSSQLTrustCert: "no"},
			"sqlserver://h:14330?database=dw",
		},
		{
			"integrated auth",
			map[string]string{EnvMSSQLServer: "h", EnvMSSQLDatabase: "dw"},
			"sqlserver://h:1433?TrustServerCertificate=true&database=dw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSettings(tt.env)
			assert.Equal(t, tt.want, svc.mssqlDSN())
		})
	}
}

func TestSettingsService_Save(t *testing.T) {
	svc, store := newTestSettings(nil)

	settings := domain.DefaultAppSettings()
	settings.Warehouse.DSN = "file:dw.db"
	settings.Embedding.APIKey = "sk-embed"
	settings.Retrieval.MaxContextDocs = 25
	settings.Retrieval.CountTimeout = 3 * time.Second
	require.NoError(t, svc.Save(&settings))

	assert.Equal(t, "file:dw.db", store.GetString("warehouse.dsn"))
	assert.Equal(t, "sk-embed", store.GetString("embedding.api_key"))
	_, hasLLMKey := store.Get("llm.api_key")
	assert.False(t, hasLLMKey, "empty API keys are not written")

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, &settings, got)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key   string
		value string
		ok    bool
	}{
		{"warehouse.driver", "sqlserver", true},
		{"warehouse.driver", "postgres", false},
		{"warehouse.tables", "DimProduct, DimCustomer", true},
		{"warehouse.tables", " , ", false},
		{"embedding.provider", "ollama", true},
		{"embedding.provider", "anthropic", false},
		{"llm.provider", "anthropic", true},
		{"llm.provider", "gemini", false},
		{"index.backend", "memory", true},
		{"index.backend", "faiss", false},
		{"retrieval.default_top_k", "20", true},
		{"retrieval.default_top_k", "0", false},
		{"retrieval.max_context_docs", "many", false},
		{"retrieval.count_timeout", "1500ms", true},
		{"retrieval.count_timeout", "-1s", false},
		{"indexing.batch_size", "2048", true},
		{"indexing.batch_size", "2049", false},
		{"indexing.requests_per_second", "0.5", true},
		{"indexing.requests_per_second", "-1", false},
		{"scheduler.enabled", "false", true},
		{"scheduler.enabled", "sometimes", false},
		{"scheduler.daily_at", "03:15", true},
		{"scheduler.daily_at", "3pm", false},
		{"server.addr", ":8080", true},
		{"search.mode", "hybrid", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			svc, _ := newTestSettings(nil)
			err := svc.Set(tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}
}

func TestSettingsService_Set_StoresTypedValues(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, svc.Set("warehouse.tables", "DimProduct, DimCustomer,"))
	require.NoError(t, svc.Set("retrieval.default_top_k", " 25 "))
	require.NoError(t, svc.Set("scheduler.enabled", "false"))

	assert.Equal(t, []string{"DimProduct", "DimCustomer"}, store.GetStringSlice("warehouse.tables"))
	raw, _ := store.Get("retrieval.default_top_k")
	assert.Equal(t, 25, raw)

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 25, s.Retrieval.DefaultTopK)
	assert.False(t, s.Scheduler.Enabled)
}

func TestSettingsService_Set_ProviderChangeResetsModel(t *testing.T) {
	svc, store := newTestSettings(nil)
	require.NoError(t, store.Set("llm.model", "gpt-4.1"))

	require.NoError(t, svc.Set("llm.provider", "openai"))
	assert.Equal(t, "gpt-4.1", store.GetString("llm.model"))

	require.NoError(t, svc.Set("llm.provider", "anthropic"))
	assert.Equal(t, "claude-3-5-haiku-latest", store.GetString("llm.model"))

	require.NoError(t, svc.Set("embedding.provider", "ollama"))
	require.NoError(t, svc.Set("embedding.model", "mxbai-embed-large"))
	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "mxbai-embed-large", s.Embedding.Model)
}

func TestSettingsService_Keys(t *testing.T) {
	svc, _ := newTestSettings(nil)

	keys := svc.Keys()
	assert.Contains(t, keys, "warehouse.dsn")
	assert.Contains(t, keys, "retrieval.aggregation_top_k")
	assert.Equal(t, "warehouse.driver", keys[0])

	keys[0] = "mutated"
	assert.Equal(t, "warehouse.driver", svc.Keys()[0])

	for _, k := range svc.Keys() {
		if err := svc.Set(k, ""); err != nil {
			assert.NotContains(t, err.Error(), "unknown setting", "key %s must be accepted by Set", k)
		}
	}
}

func TestSettingsService_SetAPIKey(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, svc.SetAPIKey(domain.AIProviderOpenAI, "  sk-both  "))
	assert.Equal(t, "sk-both", store.GetString("embedding.api_key"))
	assert.Equal(t, "sk-both", store.GetString("llm.api_key"))

	assert.ErrorIs(t, svc.SetAPIKey(domain.AIProviderOllama, "x"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetAPIKey(domain.AIProviderOpenAI, " "), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetAPIKey(domain.AIProviderAnthropic, "sk-ant"), domain.ErrInvalidInput,
		"anthropic is not in use")

	require.NoError(t, store.Set("llm.provider", "anthropic"))
	require.NoError(t, svc.SetAPIKey(domain.AIProviderAnthropic, "sk-ant"))
	assert.Equal(t, "sk-ant", store.GetString("llm.api_key"))
	assert.Equal(t, "sk-both", store.GetString("embedding.api_key"))
}

func TestSettingsService_Validate(t *testing.T) {
	svc, store := newTestSettings(nil)

	err := svc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider")

	require.NoError(t, store.Set("embedding.api_key", "sk"))
	err = svc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM provider")

	require.NoError(t, store.Set("llm.api_key", "sk"))
	assert.NoError(t, svc.Validate())

	require.NoError(t, store.Set("scheduler.daily_at", "noon"))
	assert.ErrorIs(t, svc.Validate(), domain.ErrInvalidInput)

	require.NoError(t, store.Set("scheduler.enabled", false))
	assert.NoError(t, svc.Validate(), "a disabled schedule is not checked")

	require.NoError(t, store.Set("index.backend", "faiss"))
	assert.Error(t, svc.Validate())
}

func TestSettingsService_Validate_LocalProviders(t *testing.T) {
	svc, store := newTestSettings(nil)
	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("llm.provider", "ollama"))

	assert.NoError(t, svc.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_ValidateAIConfig(t *testing.T) {
	store := memory.NewConfigStore()
	validator := &mockAIValidator{llmErr: errors.New("unauthorised")}
	svc := NewSettingsService(store, validator)
	svc.getenv = func(string) string { return "" }
	require.NoError(t, store.Set("embedding.model", "text-embedding-3-large"))

	require.NoError(t, svc.ValidateEmbeddingConfig())
	require.NotNil(t, validator.embedded)
	assert.Equal(t, "text-embedding-3-large", validator.embedded.Model)

	assert.EqualError(t, svc.ValidateLLMConfig(), "unauthorised")
}

func TestSettingsService_ValidateAIConfig_NoValidator(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.NoError(t, svc.ValidateEmbeddingConfig())
	assert.NoError(t, svc.ValidateLLMConfig())
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	svc, store := newTestSettings(nil)

	cfg := svc.GetSchedulerConfig()
	task := cfg.GetTaskConfig(domain.TaskIDWarehouseReindex)
	assert.True(t, cfg.Enabled)
	assert.True(t, task.Enabled)
	assert.Equal(t, domain.DefaultDailyAt, task.At)

	require.NoError(t, store.Set("scheduler.daily_at", "05:45"))
	require.NoError(t, store.Set("scheduler.enabled", false))

	cfg = svc.GetSchedulerConfig()
	task = cfg.GetTaskConfig(domain.TaskIDWarehouseReindex)
	assert.False(t, cfg.Enabled)
	assert.False(t, task.Enabled)
	assert.Equal(t, "05:45", task.At)
}
