package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

// statsPayload is the JSON form shared by the stats command and the HTTP API.
type statsPayload struct {
	CollectionName string `json:"collection_name"`
	DocumentCount  *int   `json:"document_count"`
	CountAvailable bool   `json:"count_available"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stats := queryService.Stats(cmd.Context())

	if statsJSON {
		out := statsPayload{CollectionName: stats.Collection, CountAvailable: stats.CountAvailable}
		if stats.CountAvailable {
			n := stats.DocumentCount
			out.DocumentCount = &n
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Collection: %s\n", stats.Collection)
	if stats.CountAvailable {
		cmd.Printf("Documents:  %d\n", stats.DocumentCount)
	} else {
		cmd.Println("Documents:  unknown (count timed out)")
	}
	return nil
}
