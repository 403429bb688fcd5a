package cli

import (
	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/adapters/driving/tui"
)

func newTUICmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal session",
		Long: `Opens a terminal UI for asking questions and searching the indexed
documentation. Tab switches between question and search mode; Ctrl+C
quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}
			return tui.Run(app.agent, app.search, app.defaultFilter())
		},
	}
}
