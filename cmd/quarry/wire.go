package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/quarry/internal/adapters/driven/ai"
	"github.com/custodia-labs/quarry/internal/adapters/driven/config/file"
	"github.com/custodia-labs/quarry/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/quarry/internal/adapters/driven/warehouse"
	"github.com/custodia-labs/quarry/internal/adapters/driving/cli"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/services"
	"github.com/custodia-labs/quarry/internal/formatters"
	"github.com/custodia-labs/quarry/internal/logger"
)

// dataDir is the subdirectory of the config dir holding the SQLite store.
const dataDir = "data"

// application holds the wired services and everything that must be
// closed on exit.
type application struct {
	Services cli.Services
	closers  []io.Closer
}

// Close releases every resource opened by build, in reverse order.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// build wires the adapters under dir into the core services. Missing
// warehouse or AI configuration is not an error: the affected services
// get nil collaborators and report what is missing when used.
func build(dir string) (*application, error) {
	app := &application{}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := openStore(dir, settings.Index)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, store)

	var index driven.VectorIndex
	switch settings.Index.Backend {
	case domain.IndexBackendMemory:
		index = memory.NewVectorIndex()
	default:
		index = store.VectorIndex(settings.Index.Collection)
	}

	var source driven.RowSource
	if wh, err := warehouse.Connect(settings.Warehouse); err != nil {
		logger.Debug("warehouse unavailable: %v", err)
	} else {
		source = wh
		app.closers = append(app.closers, wh)
	}

	var embedder driven.EmbeddingService
	if emb, err := ai.CreateEmbeddingService(&settings.Embedding); err != nil {
		logger.Debug("embedding unavailable: %v", err)
	} else {
		embedder = emb
		app.closers = append(app.closers, emb)
	}

	var llm driven.LLMService
	if l, err := ai.CreateLLMService(&settings.LLM); err != nil {
		logger.Debug("llm unavailable: %v", err)
	} else {
		llm = l
		app.closers = append(app.closers, l)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, file.PromptDir), map[string]string{
		driven.PromptAnswerSystem: services.DefaultAnswerSystemPrompt,
		driven.PromptAnswerUser:   services.DefaultAnswerUserPrompt,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	queryService := services.NewQueryService(embedder, index, llm, settings.Index.Collection, settings.Retrieval)
	queryService.SetPromptStore(prompts)

	var batchEmbedder *services.BatchEmbedder
	if embedder != nil {
		batchEmbedder = services.NewBatchEmbedder(embedder, services.EmbedderConfigFrom(settings.Indexing))
	}
	indexService := services.NewIndexService(source, formatters.NewAssembler(), batchEmbedder, index, settings.Warehouse.Tables)

	schedulerConfig := settingsService.GetSchedulerConfig()
	scheduler := services.NewScheduler(schedulerConfig, store.SchedulerStore(), indexService)

	app.Services = cli.Services{
		Query:           queryService,
		Index:           indexService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		WatchPrompts: func(ctx context.Context, onReload func(name string)) error {
			w, err := file.NewPromptWatcher(prompts, onReload)
			if err != nil {
				return err
			}
			w.Run(ctx)
			return nil
		},
	}
	return app, nil
}

// openStore opens the SQLite store at the configured path, or under dir.
// The scheduler uses it even when the vector index is kept in memory.
func openStore(dir string, settings domain.IndexSettings) (*sqlite.Store, error) {
	var (
		store *sqlite.Store
		err   error
	)
	if settings.Path != "" {
		store, err = sqlite.OpenFile(settings.Path)
	} else {
		store, err = sqlite.NewStore(filepath.Join(dir, dataDir))
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}
