package cli

import (
	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/adapters/driving/httpapi"
)

func newServeCmd(app *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serves the REST API: POST /search, POST /ask, POST /documents,
DELETE /documents/{id}, GET /health and GET /stats. The server shuts
down gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			listen := app.cfg.HTTP.ListenAddr
			if addr != "" {
				listen = addr
			}

			server := httpapi.NewServer(app.search, app.agent, app.indexer)
			cmd.Printf("Listening on %s\n", listen)
			return server.ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
