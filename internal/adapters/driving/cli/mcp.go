package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/adapters/driving/mcp"
)

func newMCPCmd(app *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server exposing the search and ask
tools to AI assistants.

By default the server communicates over stdio using JSON-RPC. Use
--port to serve HTTP instead, which enables testing with the MCP
Inspector web UI and remote access.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "docpilot": {
        "command": "/path/to/docpilot",
        "args": ["mcp"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Ports{
				Search: app.search,
				Agent:  app.agent,
				Index:  app.indexer,
			})
			if err != nil {
				return err
			}

			if port > 0 {
				addr := fmt.Sprintf(":%d", port)
				fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
				return server.RunHTTP(cmd.Context(), addr)
			}
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use stdio)")
	return cmd
}
