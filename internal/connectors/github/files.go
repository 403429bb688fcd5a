package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// maxFileSize caps individual file downloads at 1MB.
const maxFileSize = 1024 * 1024

// FetchFiles retrieves matching text files from a repository's default
// branch as RawDocuments.
func FetchFiles(
	ctx context.Context, client *Client, owner, name string, patterns []string,
) ([]domain.RawDocument, error) {
	repo, err := client.GetRepository(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	branch := repo.GetDefaultBranch()

	tree, err := client.GetTree(ctx, owner, name, branch)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.RawDocument, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}

		path := entry.GetPath()
		if !matchesPatterns(path, patterns) {
			continue
		}
		if isBinaryExtension(path) {
			continue
		}
		if entry.GetSize() > maxFileSize {
			continue
		}

		content, err := fetchBlobContent(ctx, client, owner, name, entry.GetSHA())
		if err != nil {
			// Skip files we can't read.
			continue
		}
		if !utf8.Valid(content) {
			continue
		}

		docs = append(docs, domain.RawDocument{
			Source:  domain.SourceGitHub,
			URI:     fmt.Sprintf("github://%s/%s/blob/%s/%s", owner, name, branch, path),
			Title:   filepath.Base(path),
			MIME:    detectFileMIMEType(path),
			Content: string(content),
			Metadata: map[string]any{
				"owner":  owner,
				"repo":   fmt.Sprintf("%s/%s", owner, name),
				"branch": branch,
				"path":   path,
				"sha":    entry.GetSHA(),
				"html_url": fmt.Sprintf(
					"https://github.com/%s/%s/blob/%s/%s",
					owner, name, branch, path,
				),
			},
		})
	}

	return docs, nil
}

// fetchBlobContent fetches the content of a blob and decodes it.
func fetchBlobContent(ctx context.Context, client *Client, owner, repo, sha string) ([]byte, error) {
	blob, err := client.GetBlob(ctx, owner, repo, sha)
	if err != nil {
		return nil, err
	}
	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		return base64.StdEncoding.DecodeString(content)
	}
	return []byte(blob.GetContent()), nil
}

// extMIMETypes maps file extensions to MIME types for common types not
// in Go's registry.
var extMIMETypes = map[string]string{
	".md": "text/markdown", ".markdown": "text/markdown",
	".go": "text/x-go", ".py": "text/x-python", ".rs": "text/x-rust",
	".ts": "text/typescript", ".tsx": "text/typescript-jsx",
	".yaml": "text/yaml", ".yml": "text/yaml", ".toml": "text/toml",
	".sh": "text/x-shellscript", ".sql": "text/x-sql",
	".rst": "text/x-rst", ".adoc": "text/asciidoc",
}

// detectFileMIMEType determines the MIME type from file extension.
func detectFileMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extMIMETypes[ext]; ok {
		return t
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType != "" {
		if idx := strings.Index(mimeType, ";"); idx != -1 {
			mimeType = strings.TrimSpace(mimeType[:idx])
		}
		return mimeType
	}
	return "text/plain"
}

// matchesPatterns checks if a path matches any of the glob patterns.
// No patterns means everything matches.
func matchesPatterns(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// isBinaryExtension checks if a file extension indicates a binary file.
func isBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	binaryExts := map[string]bool{
		".exe": true, ".dll": true, ".so": true, ".dylib": true,
		".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".7z": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
		".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
		".bin": true, ".dat": true, ".db": true, ".sqlite": true,
		".pyc": true, ".pyo": true, ".class": true, ".o": true, ".a": true,
	}
	return binaryExts[ext]
}
