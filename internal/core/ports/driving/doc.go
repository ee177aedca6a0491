// Package driving holds the interfaces the CLI, HTTP, MCP and TUI adapters
// call into. Each is implemented by a service in internal/core/services.
package driving
