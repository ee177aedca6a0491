package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// WarehouseDriver names a database/sql driver for the row source.
type WarehouseDriver string

// Supported warehouse drivers.
const (
	WarehouseDriverSQLServer WarehouseDriver = "sqlserver"
	WarehouseDriverSQLite    WarehouseDriver = "sqlite"
)

// IsValid returns true if the driver is supported.
func (d WarehouseDriver) IsValid() bool {
	return d == WarehouseDriverSQLServer || d == WarehouseDriverSQLite
}

// WarehouseSettings locates the relational warehouse.
type WarehouseSettings struct {
	Driver WarehouseDriver
	DSN    string

	// Tables lists the tables read by an indexing run, in order.
	Tables []string
}

// IsConfigured returns true if the warehouse can be opened.
func (w WarehouseSettings) IsConfigured() bool {
	return w.Driver.IsValid() && w.DSN != ""
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendSQLite IndexBackend = "sqlite"
	IndexBackendMemory IndexBackend = "memory"
)

// IndexSettings configures the vector index.
type IndexSettings struct {
	Backend IndexBackend

	// Path is the SQLite database file. Empty means the data directory default.
	Path string

	// Collection is the logical name reported by stats.
	Collection string
}

// RetrievalSettings bounds how much context a question pulls in.
type RetrievalSettings struct {
	// DefaultTopK is the search breadth for ordinary questions.
	DefaultTopK int

	// AggregationTopK caps the breadth for aggregation questions.
	AggregationTopK int

	// MaxContextDocs caps the documents passed to the model.
	MaxContextDocs int

	// CountTimeout bounds the index count lookup.
	CountTimeout time.Duration
}

// IndexingSettings configures embedding throughput during indexing.
type IndexingSettings struct {
	BatchSize  int
	Workers    int
	MaxRetries int

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// SchedulerSettings configures the nightly reindex.
type SchedulerSettings struct {
	Enabled bool

	// DailyAt is a local "HH:MM" time.
	DailyAt string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Warehouse WarehouseSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Retrieval RetrievalSettings
	Indexing  IndexingSettings
	Scheduler SchedulerSettings
	Server    ServerSettings
}

// Defaults for retrieval and indexing.
const (
	DefaultTopK            = 10
	DefaultAggregationTopK = 50
	DefaultMaxContextDocs  = 15
	DefaultCountTimeout    = 2 * time.Second

	DefaultBatchSize  = 100
	MaxBatchSize      = 2048
	DefaultWorkers    = 3
	DefaultMaxRetries = 5

	DefaultCollection = "warehouse"
	DefaultServerAddr = ":4100"
)

// DefaultAppSettings returns settings with sensible defaults.
// OpenAI is preselected for both AI roles but has no API key, so neither
// is configured until a key is supplied. The warehouse has no DSN.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Warehouse: WarehouseSettings{
			Driver: WarehouseDriverSQLServer,
			Tables: DefaultTables(),
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    "text-embedding-3-small",
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			Collection: DefaultCollection,
		},
		Retrieval: RetrievalSettings{
			DefaultTopK:     DefaultTopK,
			AggregationTopK: DefaultAggregationTopK,
			MaxContextDocs:  DefaultMaxContextDocs,
			CountTimeout:    DefaultCountTimeout,
		},
		Indexing: IndexingSettings{
			BatchSize:  DefaultBatchSize,
			Workers:    DefaultWorkers,
			MaxRetries: DefaultMaxRetries,
		},
		Scheduler: SchedulerSettings{
			Enabled: true,
			DailyAt: DefaultDailyAt,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// DefaultTables returns the warehouse tables indexed by default.
func DefaultTables() []string {
	return []string{
		"DimProduct",
		"DimCustomer",
		"FactProductInventory",
		"CompetitorDimProduct",
		"CompetitorFactInternetSales",
		"DimAccount",
		"DimCurrency",
		"DimDate",
		"DimDepartmentGroup",
		"DimEmployee",
		"DimGeography",
		"DimOrganization",
		"DimProductCategory",
		"DimProductSubcategory",
		"DimProfile",
		"DimPromotion",
		"DimReseller",
		"DimSalesReason",
		"DimSalesTerritory",
		"DimScenario",
		"DimScrapeRun",
		"FactAdditionalInternationalProductDescription",
		"FactCallCenter",
		"FactCurrencyRate",
		"FactFinance",
		"FactInternetSales",
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support chat completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
