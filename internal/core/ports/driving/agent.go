package driving

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// AgentService answers natural-language questions over the indexed
// corpus. Ask never returns an error for retrieval or generation
// failures; those surface as structured ERRORED responses. Only
// request validation can fail outright.
type AgentService interface {
	Ask(ctx context.Context, question string, filter domain.SearchFilter) (*domain.AgentResponse, error)
}
