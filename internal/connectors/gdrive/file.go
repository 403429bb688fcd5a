package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// Google Workspace MIME types that can be exported.
const (
	mimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	mimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxExportSize caps exported content at 5MB.
const maxExportSize = 5 * 1024 * 1024

// fileToRawDocument converts a Drive file to a RawDocument. Folders
// and non-text files return nil.
func (c *Connector) fileToRawDocument(ctx context.Context, file *drive.File) (*domain.RawDocument, error) {
	if file.MimeType == mimeTypeFolder {
		return nil, nil
	}

	content, exportedMime, err := c.fetchFileContent(ctx, file)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	mimeType := file.MimeType
	if exportedMime != "" {
		mimeType = exportedMime
	}

	return &domain.RawDocument{
		Source:  domain.SourceGDrive,
		URI:     fmt.Sprintf("gdrive://files/%s", file.Id),
		Title:   file.Name,
		MIME:    mimeType,
		Content: content,
		Metadata: map[string]any{
			"file_id":       file.Id,
			"original_mime": file.MimeType,
			"size":          file.Size,
			"web_link":      file.WebViewLink,
			"modified_time": file.ModifiedTime,
		},
	}, nil
}

// fetchFileContent retrieves the text content of a file, exporting
// Google Workspace formats. The returned MIME type is non-empty when
// the file was converted.
func (c *Connector) fetchFileContent(ctx context.Context, file *drive.File) (string, string, error) {
	switch file.MimeType {
	case mimeTypeGoogleDoc, mimeTypeGoogleSlides:
		content, err := c.exportFile(ctx, file.Id, exportMimeText)
		return content, exportMimeText, err
	case mimeTypeGoogleSheet:
		content, err := c.exportFile(ctx, file.Id, exportMimeCSV)
		return content, exportMimeCSV, err
	}

	if !isTextMime(file.MimeType) || file.Size > maxExportSize {
		return "", "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	resp, err := c.svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize))
	if err != nil {
		return "", "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), "", nil
}

// exportFile exports a Google Workspace file to the given format.
func (c *Connector) exportFile(ctx context.Context, fileID, exportMime string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.svc.Files.Export(fileID, exportMime).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

// isTextMime reports whether a MIME type is text-like.
func isTextMime(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml", "application/javascript":
		return true
	}
	return false
}
