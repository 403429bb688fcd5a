package domain

import "fmt"

// MaxTopK caps the pre-filter candidate count for any single retrieval.
const MaxTopK = 100

// DefaultTopK is used when a filter does not specify a result cap.
const DefaultTopK = 10

// SearchFilter scopes one retrieval request. It is a pure value object,
// re-created per request and never persisted.
type SearchFilter struct {
	// TopK caps the pre-filter candidate count (1..MaxTopK).
	TopK int

	// SimilarityThreshold is the inclusive lower bound on similarity.
	// Candidates strictly below it are discarded.
	SimilarityThreshold float64

	// Source, Repo and Mime are exact-match post-filters on candidate
	// metadata. Empty means no filtering.
	Source string
	Repo   string
	Mime   string
}

// DefaultFilter returns the filter used when a request supplies none.
func DefaultFilter() SearchFilter {
	return SearchFilter{
		TopK:                DefaultTopK,
		SimilarityThreshold: 0.7,
	}
}

// Validate checks the filter bounds. TopK is clamped to MaxTopK rather
// than rejected; out-of-range thresholds are errors.
func (f *SearchFilter) Validate() error {
	if f.TopK <= 0 {
		f.TopK = DefaultTopK
	}
	if f.TopK > MaxTopK {
		f.TopK = MaxTopK
	}
	if f.SimilarityThreshold < 0 || f.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %v outside [0,1]",
			ErrInvalidInput, f.SimilarityThreshold)
	}
	return nil
}

// Candidate is one retrieval hit: a chunk with its parent document and
// the distance/similarity pair from the nearest-neighbour scan.
type Candidate struct {
	Chunk    Chunk
	Document Document

	// Distance is the raw store metric (L2). Smaller is closer.
	Distance float64

	// Similarity is 1 - Distance. Callers reason in similarity.
	Similarity float64
}

// SimilarityFromDistance converts the store's L2 distance to the
// similarity score callers see. Monotonically decreasing in distance.
func SimilarityFromDistance(distance float64) float64 {
	return 1.0 - distance
}
