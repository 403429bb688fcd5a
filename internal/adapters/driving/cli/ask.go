package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

func newAskCmd(app *app) *cobra.Command {
	var (
		limit     int
		threshold float64
		source    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the indexed documentation",
		Long: `Retrieves the most relevant documentation chunks and generates an
answer with cited sources. Answers come only from the indexed corpus;
when the context is insufficient the assistant says so instead of
guessing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			filter := app.defaultFilter()
			if limit > 0 {
				filter.TopK = limit
			}
			if cmd.Flags().Changed("threshold") {
				filter.SimilarityThreshold = threshold
			}
			filter.Source = source

			resp, err := app.agent.Ask(cmd.Context(), args[0], filter)
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}

			if asJSON {
				return printJSON(cmd, resp)
			}
			printAnswer(cmd, resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of context chunks")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity score in [0,1]")
	cmd.Flags().StringVar(&source, "source", "", "restrict context to one source (github, gdrive, upload)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the full response as JSON")

	return cmd
}

func printAnswer(cmd *cobra.Command, resp *domain.AgentResponse) {
	cmd.Println(resp.Answer)

	if resp.Error != "" {
		cmd.Println()
		cmd.Printf("Error: %s\n", resp.Error)
	}

	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range resp.Sources {
			cmd.Printf("  [%d] %s (%s) - %.2f\n", src.Index, src.Title, src.URI, src.Similarity)
		}
	}

	cmd.Println()
	cmd.Printf("trace=%s search=%s generation=%s total=%s\n",
		resp.TraceID, resp.Timings.Search, resp.Timings.Generation, resp.Timings.Total)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
