// Package upload ingests local files and directories.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// maxFileSize caps individual file reads at 1MB.
const maxFileSize = 1024 * 1024

// Connector reads documents from local paths. Directories are walked
// recursively; hidden entries are skipped.
type Connector struct {
	paths []string

	mu     sync.Mutex
	closed bool
}

// New creates a connector over the given files and directories.
func New(paths []string) *Connector {
	return &Connector{paths: paths}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceUpload
}

// Validate checks every configured path exists and is readable.
func (c *Connector) Validate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	if len(c.paths) == 0 {
		return fmt.Errorf("%w: no paths configured", domain.ErrInvalidInput)
	}
	for _, p := range c.paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, p, err)
		}
	}
	return nil
}

// Fetch streams documents from the configured paths. Unreadable files
// are reported on the error channel and the walk continues.
func (c *Connector) Fetch(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		for _, root := range c.paths {
			if err := c.walk(ctx, root, docsChan, errsChan); err != nil {
				return
			}
		}
	}()

	return docsChan, errsChan
}

func (c *Connector) walk(
	ctx context.Context, root string,
	docsChan chan<- domain.RawDocument, errsChan chan<- error,
) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			reportErr(errsChan, fmt.Errorf("walking %s: %w", path, err))
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		doc, err := readFile(path)
		if err != nil {
			reportErr(errsChan, fmt.Errorf("reading %s: %w", path, err))
			return nil
		}
		if doc == nil {
			return nil
		}

		select {
		case docsChan <- *doc:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// readFile loads one file as a RawDocument. Binary and oversize files
// return nil.
func readFile(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		logger.Debug("Skipping %s: %d bytes exceeds limit", path, info.Size())
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &domain.RawDocument{
		Source:  domain.SourceUpload,
		URI:     "file://" + abs,
		Title:   filepath.Base(path),
		MIME:    detectMIMEType(path),
		Content: string(data),
		Metadata: map[string]any{
			"path": abs,
			"size": info.Size(),
		},
	}, nil
}

func reportErr(errsChan chan<- error, err error) {
	select {
	case errsChan <- err:
	default:
		logger.Warn("Upload error dropped: %v", err)
	}
}

// extMIMETypes maps common documentation extensions not in Go's
// registry.
var extMIMETypes = map[string]string{
	".md": "text/markdown", ".markdown": "text/markdown",
	".rst": "text/x-rst", ".adoc": "text/asciidoc",
	".yaml": "text/yaml", ".yml": "text/yaml", ".toml": "text/toml",
}

func detectMIMEType(path string) string {
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

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
