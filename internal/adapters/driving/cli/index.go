package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector index from the warehouse",
	Long: `Reads the configured warehouse tables, turns every row into a document,
embeds the documents and stores them in the vector index.

Embedding finishes before the index is touched, so a failed run leaves the
previous index in place. Use --clear to replace the index with the new
batch instead of adding to it.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("clear", false, "replace the existing index with this run's documents")
	indexCmd.Flags().Bool("reset", false, "delete every indexed document and exit")
	indexCmd.Flags().StringSliceP("table", "t", nil, "index only these tables (repeatable)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	clearFirst, _ := cmd.Flags().GetBool("clear")
	reset, _ := cmd.Flags().GetBool("reset")
	tables, _ := cmd.Flags().GetStringSlice("table")

	if reset {
		if err := indexService.Reset(cmd.Context()); err != nil {
			return hint(fmt.Errorf("reset failed: %w", err))
		}
		cmd.Println("Index cleared.")
		return nil
	}

	progress := &indexProgress{cmd: cmd}
	report, err := indexService.Index(cmd.Context(), domain.IndexOptions{Clear: clearFirst, Tables: tables}, progress.observe)
	if err != nil {
		return hint(fmt.Errorf("index failed: %w", err))
	}

	cmd.Printf("\nIndexed %d documents from %d tables in %s (run %s)\n",
		report.Documents, report.Tables, report.Duration.Round(time.Millisecond), report.RunID)
	if report.SkippedRows > 0 {
		cmd.Printf("Skipped %d rows with invalid keys\n", report.SkippedRows)
	}
	if len(report.FailedTables) > 0 {
		cmd.Printf("Failed tables: %s\n", strings.Join(report.FailedTables, ", "))
	}
	if report.Count >= 0 {
		cmd.Printf("Index now holds %d documents\n", report.Count)
	} else {
		cmd.Println("Index size unknown (count timed out)")
	}
	return nil
}

// indexProgress renders index events. Embed events arrive from worker
// goroutines, possibly out of order.
type indexProgress struct {
	cmd *cobra.Command

	mu        sync.Mutex
	embedDone int
}

func (p *indexProgress) observe(ev domain.IndexEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Stage {
	case domain.StageRead:
		if ev.Err != nil {
			p.cmd.Printf("  ! %s: %v\n", ev.Table, ev.Err)
			return
		}
		p.cmd.Printf("  read %s (%d rows)\n", ev.Table, ev.Rows)
	case domain.StageAssemble:
		p.cmd.Printf("Assembled %d documents\n", ev.Total)
	case domain.StageEmbed:
		if ev.Done <= p.embedDone {
			return
		}
		p.embedDone = ev.Done
		p.cmd.Printf("\rEmbedding... batch %d/%d", ev.Done, ev.Total)
		if ev.Done == ev.Total {
			p.cmd.Println()
		}
	case domain.StageClear:
		p.cmd.Println("Cleared previous index")
	case domain.StageStore:
		p.cmd.Printf("Stored %d documents\n", ev.Done)
	}
}
