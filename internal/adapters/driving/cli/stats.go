package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			stats, err := app.indexer.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}

			if asJSON {
				return printJSON(cmd, stats)
			}
			cmd.Printf("Documents:           %d\n", stats.Documents)
			cmd.Printf("Chunks:              %d\n", stats.Chunks)
			cmd.Printf("Embedding model:     %s\n", stats.EmbeddingModel)
			cmd.Printf("Embedding dimension: %d\n", stats.EmbeddingDimension)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output statistics as JSON")
	return cmd
}
