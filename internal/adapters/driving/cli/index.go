package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/connectors/upload"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

func newIndexCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index local files or directories",
		Long: `Reads text files from the given paths (directories are walked
recursively), chunks and embeds them, and stores them for search.
Documents whose content is already indexed are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			conn := upload.New(args)
			defer conn.Close()

			if err := conn.Validate(cmd.Context()); err != nil {
				return fmt.Errorf("validating paths: %w", err)
			}

			docs, errs := conn.Fetch(cmd.Context())
			raws := collectDocuments(docs, errs)
			if len(raws) == 0 {
				cmd.Println("No indexable files found.")
				return nil
			}

			summary := app.indexer.IndexBatch(cmd.Context(), raws)
			printSummary(cmd, summary)
			return nil
		},
	}

	return cmd
}

// collectDocuments drains a connector's output, logging fetch errors.
func collectDocuments(docs <-chan domain.RawDocument, errs <-chan error) []domain.RawDocument {
	var raws []domain.RawDocument
	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			raws = append(raws, doc)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("fetch: %v", err)
		}
	}
	return raws
}

func printSummary(cmd *cobra.Command, summary driving.BatchSummary) {
	cmd.Printf("Indexed %d document(s), %d deduplicated, %d failed.\n",
		summary.Indexed, summary.Deduplicated, len(summary.Failed))
	for _, failure := range summary.Failed {
		cmd.Printf("  failed: %s: %v\n", failure.URI, failure.Err)
	}
}
