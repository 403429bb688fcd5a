// Package cli implements the docpilot command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/logger"
)

// NewRootCmd builds the root command and all subcommands. Services are
// wired lazily through the app so commands that never touch the store
// or providers (version, help) need no configuration.
func NewRootCmd(version string) *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "docpilot",
		Short: "Documentation assistant with semantic search",
		Long: `DocPilot indexes documentation from GitHub, Google Drive and local
files into a vector store and answers questions about it with cited
sources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetVerbose(app.verbose)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			app.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "path to config file (default ~/.docpilot/config.toml)")
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&app.storeKind, "store", "postgres", "document store backend (postgres, memory)")

	rootCmd.AddCommand(
		newAskCmd(app),
		newSearchCmd(app),
		newIndexCmd(app),
		newSyncCmd(app),
		newStatsCmd(app),
		newServeCmd(app),
		newMCPCmd(app),
		newTUICmd(app),
		newVersionCmd(version),
	)

	return rootCmd
}
