package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Requests stay well below GitHub's 5000/hour authenticated limit.
const (
	requestsPerSecond = 5.0
	burstSize         = 10
)

// Client wraps the go-github client with rate limiting.
type Client struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// NewClient creates a new GitHub API client authenticated with the
// given token.
func NewClient(token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:      gh.NewClient(tc),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// ValidateCredentials makes a lightweight API call to verify the token.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, _, err := c.gh.Users.Get(ctx, "")
	return err
}

// ListAccessibleRepos returns all repositories the token can access.
func (c *Client) ListAccessibleRepos(ctx context.Context) ([]*gh.Repository, error) {
	var allRepos []*gh.Repository

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Visibility:  "all",
		Affiliation: "owner,collaborator,organization_member",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list repos: %w", err)
		}
		allRepos = append(allRepos, repos...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*gh.Repository, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	return repo, nil
}

// GetTree fetches the full recursive tree for a branch.
func (c *Client) GetTree(ctx context.Context, owner, name, ref string) (*gh.Tree, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := c.gh.Git.GetTree(ctx, owner, name, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, name, ref, err)
	}
	return tree, nil
}

// GetBlob fetches a blob by SHA.
func (c *Client) GetBlob(ctx context.Context, owner, name, sha string) (*gh.Blob, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	blob, _, err := c.gh.Git.GetBlob(ctx, owner, name, sha)
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", sha, err)
	}
	return blob, nil
}

// IsUnauthorized reports whether the error is a 401 from GitHub.
func IsUnauthorized(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotFound reports whether the error is a 404 from GitHub.
func IsNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
