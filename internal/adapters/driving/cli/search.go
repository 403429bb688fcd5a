package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

func newSearchCmd(app *app) *cobra.Command {
	var (
		limit     int
		threshold float64
		source    string
		repo      string
		mimeType  string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the indexed documentation",
		Long: `Performs semantic search over all indexed chunks and prints the
ranked results without invoking generation.`,
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
			filter.Repo = repo
			filter.Mime = mimeType

			candidates, err := app.search.Retrieve(cmd.Context(), args[0], filter)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if asJSON {
				return printJSON(cmd, candidates)
			}
			printCandidates(cmd, candidates)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity score in [0,1]")
	cmd.Flags().StringVar(&source, "source", "", "filter by source (github, gdrive, upload)")
	cmd.Flags().StringVar(&repo, "repo", "", "filter by repository (owner/name)")
	cmd.Flags().StringVar(&mimeType, "mime", "", "filter by MIME type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")

	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []domain.Candidate) {
	if len(candidates) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, c := range candidates {
		title := c.Document.Title
		if title == "" {
			title = c.Document.URI
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, c.Similarity)
		cmd.Printf("      %s\n", c.Document.URI)
		if snippet := firstLine(c.Chunk.Text); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

// firstLine returns the first non-empty line of text, trimmed to a
// display width.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 120 {
			line = line[:120] + "..."
		}
		return line
	}
	return ""
}
