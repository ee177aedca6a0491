package mcp

import (
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Query answers questions and reports index statistics.
	Query driving.QueryService
}

// Validate reports a missing query service. A nil *Ports is invalid.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
