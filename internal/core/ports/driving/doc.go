// Package driving provides interfaces for application entry points
// (primary/inbound ports). CLI, HTTP, MCP and TUI adapters call core
// services through these interfaces.
package driving
