package driving

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// IndexService ingests documents into the store.
type IndexService interface {
	// Index ingests one document: hash, dedup, chunk, embed, persist.
	// Returns the stored document (existing one if deduplicated) and
	// whether a new document row was created.
	Index(ctx context.Context, raw domain.RawDocument) (*domain.Document, bool, error)

	// IndexBatch ingests documents independently: one document's
	// failure is recorded in the summary and the batch continues.
	IndexBatch(ctx context.Context, raws []domain.RawDocument) BatchSummary

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, documentID int64) error

	// Stats reports corpus counts and the embedding configuration.
	Stats(ctx context.Context) (domain.Stats, error)
}

// BatchSummary reports the outcome of a batch ingestion.
type BatchSummary struct {
	Indexed      int
	Deduplicated int
	Failed       []BatchFailure
}

// BatchFailure records one document that could not be ingested.
type BatchFailure struct {
	URI   string
	Title string
	Err   error
}
