// Package cli provides the quarry command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Services are the driving ports the commands run against. Any field may
// be nil; commands that need it report that it is not configured.
type Services struct {
	Query     driving.QueryService
	Index     driving.IndexService
	Settings  driving.SettingsService
	Scheduler driving.Scheduler

	SchedulerConfig domain.SchedulerConfig

	// WatchPrompts blocks until ctx is done, reloading prompt files as
	// they change. onReload is called with each reloaded prompt name.
	WatchPrompts func(ctx context.Context, onReload func(name string)) error
}

var (
	queryService    driving.QueryService
	indexService    driving.IndexService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	schedulerConfig domain.SchedulerConfig
	watchPrompts    func(ctx context.Context, onReload func(name string)) error
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Ask questions about your sales warehouse",
	Long: `Quarry turns warehouse tables into searchable documents and answers
natural-language questions about them with a language model.

Index the warehouse first, then ask:
  quarry index --clear
  quarry ask "What is the price of the Road-150 Red, 62?"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetQuiet(quiet)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print retrieval and indexing diagnostics")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings")
}

// SetServices installs the services built by the composition root.
func SetServices(s Services) {
	queryService = s.Query
	indexService = s.Index
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	watchPrompts = s.WatchPrompts
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// hint appends the fix for a configuration error the user can resolve.
func hint(err error) error {
	switch {
	case errors.Is(err, domain.ErrRowSourceUnavailable):
		return fmt.Errorf("%w\nhint: set warehouse.dsn with 'quarry config set' or export QUARRY_WAREHOUSE_DSN", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("%w\nhint: configure an embedding provider with 'quarry config set-key openai'", err)
	case errors.Is(err, domain.ErrIndexInProgress):
		return fmt.Errorf("%w\nhint: wait for the running index to finish", err)
	default:
		return err
	}
}
