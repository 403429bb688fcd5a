package driven

import (
	"context"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// DocumentStore persists documents and their chunks.
// Backed by Postgres with pgvector; an in-memory implementation exists
// for tests and local development.
type DocumentStore interface {
	// InsertDocument stores a document keyed by content hash. If a
	// document with the same hash already exists, it returns the
	// existing document and created=false without writing anything.
	InsertDocument(ctx context.Context, doc *domain.Document) (stored *domain.Document, created bool, err error)

	// SaveChunks stores all chunks for a document in one transaction.
	// Either every chunk is committed with its embedding or none are.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetDocumentByHash retrieves a document by content hash.
	GetDocumentByHash(ctx context.Context, hash string) (*domain.Document, error)

	// DeleteDocument removes a document, cascading to its chunks.
	DeleteDocument(ctx context.Context, id int64) error

	// Stats reports document and chunk counts.
	Stats(ctx context.Context) (domain.Stats, error)
}
