package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// clearEnv keeps the developer's environment out of the settings.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"QUARRY_WAREHOUSE_DRIVER", "QUARRY_WAREHOUSE_DSN", "QUARRY_INDEX_PATH",
		"MSSQL_SERVER", "MSSQL_DATABASE",
	} {
		t.Setenv(k, "")
	}
}

func TestBuild_Unconfigured(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	app, err := build(dir)
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Services.Query)
	require.NotNil(t, app.Services.Index)
	require.NotNil(t, app.Services.Settings)
	require.NotNil(t, app.Services.Scheduler)
	require.NotNil(t, app.Services.WatchPrompts)
	assert.FileExists(t, filepath.Join(dir, dataDir, "quarry.db"))
	assert.True(t, app.Services.SchedulerConfig.Enabled)

	stats := app.Services.Query.Stats(context.Background())
	assert.Equal(t, domain.DefaultCollection, stats.Collection)
	assert.True(t, stats.CountAvailable)
	assert.Equal(t, 0, stats.DocumentCount)

	_, err = app.Services.Index.Index(context.Background(), domain.IndexOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrRowSourceUnavailable)

	answer, err := app.Services.Query.Ask(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)
}

func TestBuild_MemoryIndexWithSQLiteWarehouse(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	config := `[warehouse]
driver = "sqlite"
dsn = "` + filepath.ToSlash(filepath.Join(dir, "warehouse.db")) + `"

[index]
backend = "memory"
path = "` + filepath.ToSlash(filepath.Join(dir, "custom", "index.db")) + `"
collection = "demo"

[scheduler]
enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0o600))

	app, err := build(dir)
	require.NoError(t, err)
	defer app.Close()

	assert.FileExists(t, filepath.Join(dir, "custom", "index.db"))
	assert.False(t, app.Services.SchedulerConfig.Enabled)
	assert.Equal(t, "demo", app.Services.Query.Stats(context.Background()).Collection)

	// the warehouse is configured, so the missing embedder is what fails
	_, err = app.Services.Index.Index(context.Background(), domain.IndexOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestBuild_WatchPromptsStopsOnCancel(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	app, err := build(dir)
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, app.Services.WatchPrompts(ctx, nil))
	assert.DirExists(t, filepath.Join(dir, "prompts"))
}

func TestApplication_CloseIsIdempotent(t *testing.T) {
	clearEnv(t)

	app, err := build(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}
