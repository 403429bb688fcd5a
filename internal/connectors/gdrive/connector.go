// Package gdrive fetches documents from Google Drive.
package gdrive

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Drive allows 10 requests/sec/user; stay under it.
const (
	requestsPerSecond = 8.0
	burstSize         = 10
)

// pageSize is the Drive list page size.
const pageSize = 100

// Config holds Google Drive connector settings.
type Config struct {
	// CredentialsFile is a service account JSON key path. Empty uses
	// application default credentials.
	CredentialsFile string

	// FolderID restricts fetching to one folder and its children.
	// Empty fetches all files visible to the credentials.
	FolderID string
}

// Connector fetches documents from Google Drive.
type Connector struct {
	config  *Config
	svc     *drive.Service
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// New creates a new Drive connector and initialises the API client.
func New(ctx context.Context, cfg *Config) (*Connector, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Connector{
		config:  cfg,
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}, nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceGDrive
}

// Validate checks credentials with a single-file list call.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Files.List().PageSize(1).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, err)
	}
	return nil
}

// Fetch streams documents from Drive. Files that cannot be exported
// are reported on the error channel and the stream continues.
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

		query := "trashed = false"
		if c.config.FolderID != "" {
			query = fmt.Sprintf("'%s' in parents and trashed = false", c.config.FolderID)
		}

		pageToken := ""
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.limiter.Wait(ctx); err != nil {
				return
			}

			call := c.svc.Files.List().
				Q(query).
				PageSize(pageSize).
				Fields("nextPageToken, files(id, name, mimeType, size, webViewLink, modifiedTime)").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			page, err := call.Do()
			if err != nil {
				errsChan <- fmt.Errorf("listing drive files: %w", err)
				return
			}

			for _, file := range page.Files {
				doc, err := c.fileToRawDocument(ctx, file)
				if err != nil {
					select {
					case errsChan <- fmt.Errorf("fetching %q: %w", file.Name, err):
					default:
						logger.Warn("Fetch error for drive file %q dropped: %v", file.Name, err)
					}
					continue
				}
				if doc == nil {
					continue
				}
				select {
				case docsChan <- *doc:
				case <-ctx.Done():
					return
				}
			}

			pageToken = page.NextPageToken
			if pageToken == "" {
				return
			}
		}
	}()

	return docsChan, errsChan
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
