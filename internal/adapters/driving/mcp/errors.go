// Package mcp provides an MCP (Model Context Protocol) server adapter for Quarry.
// It lets AI assistants ask questions about the warehouse and read index statistics.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
