package driven

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// VectorSearcher runs nearest-neighbour scans over stored chunk
// embeddings. The store executes the index scan; this port defines
// query construction and result interpretation only.
type VectorSearcher interface {
	// NearestChunks returns the k chunks nearest to the query vector,
	// ordered by ascending distance, each joined with its parent
	// document. k is a cap on the pre-filter candidate count.
	NearestChunks(ctx context.Context, embedding []float32, k int) ([]VectorHit, error)
}

// VectorHit is one nearest-neighbour result.
type VectorHit struct {
	Chunk    domain.Chunk
	Document domain.Document

	// Distance is the raw metric value (L2). Smaller is closer.
	Distance float64
}
