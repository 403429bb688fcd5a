package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docpilot-labs/docpilot/internal/connectors/gdrive"
	"github.com/docpilot-labs/docpilot/internal/connectors/github"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

func newSyncCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronise documents from remote sources",
		Long: `Fetches documents from a configured source and indexes them.
Unchanged documents are deduplicated by content hash, so re-running a
sync only embeds what actually changed.`,
	}

	cmd.AddCommand(newSyncGitHubCmd(app), newSyncGDriveCmd(app))
	return cmd
}

func newSyncGitHubCmd(app *app) *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "github [owner/repo...]",
		Short: "Index documentation from GitHub repositories",
		Long: `Fetches text files from the given repositories and indexes them.
Without arguments, all repositories accessible to the configured token
are synchronised.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}
			if app.cfg.GitHub.Token == "" {
				return errors.New("github token not configured (set github.token or GITHUB_TOKEN)")
			}

			conn := github.New(&github.Config{
				Token:        app.cfg.GitHub.Token,
				Repos:        args,
				FilePatterns: patterns,
			})
			defer conn.Close()

			return runSync(cmd, app, conn)
		},
	}

	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "glob patterns for files to index (default docs and readmes)")
	return cmd
}

func newSyncGDriveCmd(app *app) *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "gdrive",
		Short: "Index documentation from Google Drive",
		Long: `Fetches text files and exportable Google Workspace documents from
Drive and indexes them. Use --folder to restrict the sync to one folder
and its children.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.init(cmd.Context()); err != nil {
				return err
			}

			cfg := &gdrive.Config{
				CredentialsFile: app.cfg.GDrive.CredentialsFile,
				FolderID:        app.cfg.GDrive.FolderID,
			}
			if folderID != "" {
				cfg.FolderID = folderID
			}

			conn, err := gdrive.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("connecting to drive: %w", err)
			}
			defer conn.Close()

			return runSync(cmd, app, conn)
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "restrict sync to one Drive folder")
	return cmd
}

// runSync streams documents from the connector into the indexer,
// printing progress as documents land.
func runSync(cmd *cobra.Command, app *app, conn driven.Connector) error {
	ctx := cmd.Context()

	if err := conn.Validate(ctx); err != nil {
		return fmt.Errorf("validating %s connector: %w", conn.Type(), err)
	}

	cmd.Printf("Synchronising from %s...\n", conn.Type())
	docs, errs := conn.Fetch(ctx)

	var indexed, deduplicated, failed int
	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			switch _, created, err := app.indexer.Index(ctx, doc); {
			case err != nil:
				failed++
				logger.Warn("indexing %s: %v", doc.URI, err)
			case created:
				indexed++
				logger.Debug("indexed %s", doc.URI)
			default:
				deduplicated++
			}
			if total := indexed + deduplicated + failed; total%25 == 0 {
				cmd.Printf("Processed %d documents...\n", total)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("fetch: %v", err)
		}
	}

	cmd.Printf("Sync complete: %d indexed, %d unchanged, %d failed.\n",
		indexed, deduplicated, failed)
	if conn.Type() == domain.SourceGitHub && indexed == 0 && deduplicated == 0 {
		cmd.Println("No matching files found. Check --pattern and repository access.")
	}
	return nil
}
