package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat",
	Long: `Launch an interactive terminal chat over the indexed warehouse.

Controls:
  Enter      - Ask the typed question
  PgUp/PgDn  - Scroll the transcript
  Ctrl+L     - Clear the transcript
  F1         - Toggle help
  Ctrl+C     - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if queryService == nil {
		return errors.New("query service not configured")
	}

	// chat is long-running; the nightly reindex keeps going underneath it
	stop := startScheduler(cmd.Context())
	defer stop()
	startPromptWatch(cmd.Context())

	app, err := tui.NewApp(&tui.Ports{Query: queryService, Settings: settingsService})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
