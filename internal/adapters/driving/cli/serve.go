package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the question and stats endpoints over HTTP.

Endpoints:
  POST /query, /api/query   {"question": "..."} -> {"answer", "question"}
  GET  /stats, /api/stats   index statistics
  GET  /health

Prompt files under ~/.quarry/prompts are reloaded when they change, and
the nightly reindex runs while the server is up if the scheduler is enabled.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	server, err := httpapi.NewServer(queryService)
	if err != nil {
		return err
	}

	addr := resolveServeAddr()
	logger.SetTimestamps(true)

	stop := startScheduler(cmd.Context())
	defer stop()
	startPromptWatch(cmd.Context())

	cmd.Printf("Listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}

// resolveServeAddr prefers the flag, then the stored setting.
func resolveServeAddr() string {
	if serveAddr != "" {
		return serveAddr
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.Server.Addr != "" {
			return settings.Server.Addr
		}
	}
	return domain.DefaultServerAddr
}
