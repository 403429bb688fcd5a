package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// Retriever turns a question into a ranked, filtered candidate list.
// It embeds the query, runs the nearest-neighbour scan, converts
// distance to similarity and applies the threshold and metadata
// filters. It performs no retries; retry policy belongs to callers.
type Retriever struct {
	embedder driven.EmbeddingService
	searcher driven.VectorSearcher
}

// NewRetriever creates a retriever over the given embedder and store.
func NewRetriever(embedder driven.EmbeddingService, searcher driven.VectorSearcher) *Retriever {
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
	}
}

// Retrieve returns candidates ordered nearest-first. The filter's TopK
// caps the pre-filter candidate count: metadata filters run after the
// scan, so a tight filter with a small TopK can legitimately return
// zero results.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, filter domain.SearchFilter,
) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Debug("Retrieve: query=%q top_k=%d threshold=%.2f", query, filter.TopK, filter.SimilarityThreshold)

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}

	hits, err := r.searcher.NearestChunks(ctx, embedding, filter.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest neighbour scan: %w", domain.ErrRetrieval, err)
	}

	logger.Debug("Retrieve: %d hits before filtering", len(hits))

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		cand := domain.Candidate{
			Chunk:      hit.Chunk,
			Document:   hit.Document,
			Distance:   hit.Distance,
			Similarity: domain.SimilarityFromDistance(hit.Distance),
		}
		if !r.matches(cand, filter) {
			continue
		}
		candidates = append(candidates, cand)
	}

	logger.Debug("Retrieve: %d candidates after filtering", len(candidates))
	return candidates, nil
}

// matches applies the similarity threshold (inclusive boundary kept)
// and the exact-match metadata filters.
func (r *Retriever) matches(cand domain.Candidate, filter domain.SearchFilter) bool {
	if cand.Similarity < filter.SimilarityThreshold {
		return false
	}
	if filter.Source != "" && cand.Document.Source != filter.Source {
		return false
	}
	if filter.Repo != "" && metadataString(cand.Chunk.Metadata, "repo") != filter.Repo {
		return false
	}
	if filter.Mime != "" && cand.Document.MIME != filter.Mime {
		return false
	}
	return true
}

// metadataString reads a string value from a metadata map.
func metadataString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
