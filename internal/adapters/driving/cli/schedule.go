package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the nightly reindex scheduler",
	Long: `Run the scheduler in the foreground. The warehouse is cleared and
reindexed daily at scheduler.daily_at until interrupted.

Use --run-once to reindex immediately and exit. The run is recorded in the
task history like a scheduled one. Use --history to list recent runs.`,
	RunE: runSchedule,
}

var (
	scheduleRunOnce bool
	scheduleHistory int
)

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunOnce, "run-once", false, "reindex now and exit")
	scheduleCmd.Flags().IntVar(&scheduleHistory, "history", 0, "show the last N reindex runs and exit")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	if scheduleHistory > 0 {
		return printHistory(cmd, scheduleHistory)
	}

	if scheduleRunOnce {
		result, err := scheduler.RunNow(cmd.Context(), domain.TaskIDWarehouseReindex)
		if err != nil {
			return hint(err)
		}
		if !result.Success {
			return fmt.Errorf("reindex failed: %s", result.Error)
		}
		cmd.Printf("Reindexed %d documents in %s\n",
			result.ItemsProcessed, result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
		return nil
	}

	if !schedulerConfig.Enabled {
		return errors.New("scheduler is disabled (set scheduler.enabled true, or use --run-once)")
	}

	task := schedulerConfig.GetTaskConfig(domain.TaskIDWarehouseReindex)
	logger.SetTimestamps(true)
	cmd.Printf("Scheduler running: daily reindex at %s. Press Ctrl+C to stop.\n", task.At)

	err := scheduler.Start(cmd.Context())
	if stopErr := scheduler.Stop(); stopErr != nil {
		cmd.PrintErrf("scheduler stop error: %v\n", stopErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printHistory(cmd *cobra.Command, limit int) error {
	runs, err := scheduler.History(cmd.Context(), domain.TaskIDWarehouseReindex, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No reindex runs recorded.")
		return nil
	}

	for _, r := range runs {
		took := r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond)
		if r.Success {
			cmd.Printf("%s  ok      %d documents in %s\n",
				r.StartedAt.Local().Format(time.DateTime), r.ItemsProcessed, took)
			continue
		}
		cmd.Printf("%s  failed  %s\n", r.StartedAt.Local().Format(time.DateTime), r.Error)
	}
	return nil
}
