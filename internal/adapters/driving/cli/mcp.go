package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the warehouse.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead, for example to test with MCP Inspector.

Tools: ask, retrieve, stats. Resource: quarry://stats.

Examples:
  # Stdio mode (default, for Claude Desktop)
  quarry mcp

  # HTTP mode
  quarry mcp --http :8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "quarry": {
        "command": "/path/to/quarry",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{Query: queryService})
	if err != nil {
		return err
	}

	startPromptWatch(cmd.Context())

	if mcpHTTPAddr != "" {
		// stdout is free in HTTP mode
		cmd.Printf("MCP server listening on %s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
