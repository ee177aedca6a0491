package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change quarry settings stored in ~/.quarry/config.toml.

Environment variables (and a .env file in the working directory) override
the stored values for API keys and the warehouse connection.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  quarry config set warehouse.driver sqlite
  quarry config set warehouse.dsn ./warehouse.db
  quarry config set retrieval.default_top_k 20

Run 'quarry config keys' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the supported setting keys",
	RunE:  runConfigKeys,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider>",
	Short: "Store an API key for openai or anthropic",
	Long: `Store an API key for a cloud provider. The key is read from a hidden
prompt so it does not end up in your shell history.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and ping the AI providers",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("[Warehouse]")
	cmd.Printf("  Driver: %s\n", settings.Warehouse.Driver)
	cmd.Printf("  DSN: %s\n", orNotSet(maskDSN(settings.Warehouse.DSN)))
	cmd.Printf("  Tables: %d\n", len(settings.Warehouse.Tables))
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	if settings.Index.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Index.Path)
	}
	cmd.Printf("  Collection: %s\n", settings.Index.Collection)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Default top K: %d\n", settings.Retrieval.DefaultTopK)
	cmd.Printf("  Aggregation top K: %d\n", settings.Retrieval.AggregationTopK)
	cmd.Printf("  Max context docs: %d\n", settings.Retrieval.MaxContextDocs)
	cmd.Printf("  Count timeout: %s\n", settings.Retrieval.CountTimeout)
	cmd.Println()

	cmd.Println("[Indexing]")
	cmd.Printf("  Batch size: %d\n", settings.Indexing.BatchSize)
	cmd.Printf("  Workers: %d\n", settings.Indexing.Workers)
	cmd.Printf("  Max retries: %d\n", settings.Indexing.MaxRetries)
	if settings.Indexing.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/second: %g\n", settings.Indexing.RequestsPerSecond)
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	if settings.Scheduler.Enabled {
		cmd.Printf("  Daily reindex at %s\n", settings.Scheduler.DailyAt)
	} else {
		cmd.Println("  Disabled")
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'quarry config set' or 'quarry config set-key' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("provider %q does not take an API key (use openai or anthropic)", args[0])
	}

	cmd.Printf("Enter %s API key: ", provider)
	apiKey := readPassword(cmd.InOrStdin())
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for this provider")
	}

	if err := settingsService.SetAPIKey(provider, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("Stored %s API key %s\n", provider, maskAPIKey(apiKey))
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var failed bool
	check := func(name string, fn func() error) {
		cmd.Printf("%-10s ", name+"...")
		if err := fn(); err != nil {
			failed = true
			cmd.Printf("FAILED: %v\n", err)
			return
		}
		cmd.Println("OK")
	}

	check("settings", settingsService.Validate)
	check("embedding", settingsService.ValidateEmbeddingConfig)
	check("llm", settingsService.ValidateLLMConfig)

	if failed {
		return errors.New("configuration is not valid")
	}
	return nil
}

// readPassword reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides a password embedded in a sqlserver URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:scheme+3] + userinfo[:colon] + ":****" + dsn[at:]
	}
	return dsn
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
