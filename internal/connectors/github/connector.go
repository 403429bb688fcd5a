// Package github fetches repository documentation through the GitHub
// API.
package github

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Config holds GitHub connector settings.
type Config struct {
	// Token is a personal access token (required).
	Token string

	// Repos lists "owner/name" repositories to fetch. Empty means all
	// repositories accessible to the token.
	Repos []string

	// FilePatterns are glob patterns for files to include. Empty means
	// all text files.
	FilePatterns []string
}

// Connector fetches documents from GitHub repositories.
type Connector struct {
	config *Config
	client *Client

	mu     sync.Mutex
	closed bool
}

// New creates a new GitHub connector.
func New(cfg *Config) *Connector {
	return &Connector{
		config: cfg,
		client: NewClient(cfg.Token),
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return domain.SourceGitHub
}

// Validate checks the token by fetching the authenticated user.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	if c.config.Token == "" {
		return fmt.Errorf("%w: github token is required", domain.ErrAuthInvalid)
	}
	if err := c.client.ValidateCredentials(ctx); err != nil {
		if IsUnauthorized(err) {
			return domain.ErrAuthInvalid
		}
		return fmt.Errorf("validating github credentials: %w", err)
	}
	return nil
}

// Fetch streams documents from the configured repositories. A
// repository that fails is reported on the error channel and the rest
// continue.
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

		repos, err := c.resolveRepos(ctx)
		if err != nil {
			errsChan <- fmt.Errorf("listing repositories: %w", err)
			return
		}

		for _, repo := range repos {
			select {
			case <-ctx.Done():
				return
			default:
			}

			docs, err := FetchFiles(ctx, c.client, repo.owner, repo.name, c.config.FilePatterns)
			if err != nil {
				select {
				case errsChan <- fmt.Errorf("fetching %s/%s: %w", repo.owner, repo.name, err):
				default:
					logger.Warn("Fetch error for %s/%s dropped: %v", repo.owner, repo.name, err)
				}
				continue
			}

			logger.Debug("Fetched %d files from %s/%s", len(docs), repo.owner, repo.name)
			for _, doc := range docs {
				select {
				case docsChan <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return docsChan, errsChan
}

type repoRef struct {
	owner string
	name  string
}

// resolveRepos turns the configured repo list into owner/name pairs,
// or lists everything the token can access when none are configured.
func (c *Connector) resolveRepos(ctx context.Context) ([]repoRef, error) {
	if len(c.config.Repos) > 0 {
		refs := make([]repoRef, 0, len(c.config.Repos))
		for _, full := range c.config.Repos {
			owner, name, ok := strings.Cut(full, "/")
			if !ok || owner == "" || name == "" {
				return nil, fmt.Errorf("%w: malformed repository %q (want owner/name)", domain.ErrInvalidInput, full)
			}
			refs = append(refs, repoRef{owner: owner, name: name})
		}
		return refs, nil
	}

	repos, err := c.client.ListAccessibleRepos(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]repoRef, 0, len(repos))
	for _, r := range repos {
		refs = append(refs, repoRef{owner: r.GetOwner().GetLogin(), name: r.GetName()})
	}
	return refs, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
