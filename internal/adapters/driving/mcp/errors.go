// Package mcp provides an MCP (Model Context Protocol) server adapter
// so AI assistants can search and question the indexed documentation.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingAgentService is returned when the agent service is not provided.
var ErrMissingAgentService = errors.New("mcp: agent service is required")
