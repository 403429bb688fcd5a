package driving

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// SearchService retrieves ranked candidate chunks for a query without
// invoking generation.
type SearchService interface {
	Retrieve(ctx context.Context, query string, filter domain.SearchFilter) ([]domain.Candidate, error)
}
