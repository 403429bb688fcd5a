package mcp

import (
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP
// server. A single injection point for dependency wiring.
type Ports struct {
	// Search provides vector search.
	Search driving.SearchService

	// Agent answers questions over the corpus.
	Agent driving.AgentService

	// Index backs the stats tool. Optional; the tool is only
	// registered when set.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Agent == nil {
		return ErrMissingAgentService
	}
	return nil
}
