package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docpilot-labs/docpilot/internal/chunker"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

var _ driving.IndexService = (*Indexer)(nil)

// DefaultEmbedBatchSize is the number of chunk texts sent per
// embedding request.
const DefaultEmbedBatchSize = 10

// Indexer ingests raw documents: hash for dedup, chunk, embed in
// batches, persist chunks transactionally.
type Indexer struct {
	store    driven.DocumentStore
	embedder driven.EmbeddingService
	splitter *chunker.Splitter

	batchSize int
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithEmbedBatchSize sets the embedding request batch size.
func WithEmbedBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithSplitter replaces the chunker.
func WithSplitter(s *chunker.Splitter) IndexerOption {
	return func(ix *Indexer) {
		if s != nil {
			ix.splitter = s
		}
	}
}

// NewIndexer creates an indexer over the given store and embedder.
func NewIndexer(store driven.DocumentStore, embedder driven.EmbeddingService, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		store:     store,
		embedder:  embedder,
		splitter:  chunker.New(),
		batchSize: DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index ingests one document. Identical content (by SHA-256 of the
// raw text) short-circuits to the existing document without chunking
// or embedding.
func (ix *Indexer) Index(ctx context.Context, raw domain.RawDocument) (*domain.Document, bool, error) {
	content := raw.Content
	if strings.TrimSpace(content) == "" {
		return nil, false, fmt.Errorf("%w: empty document content", domain.ErrInvalidInput)
	}
	if raw.Source == "" {
		return nil, false, fmt.Errorf("%w: missing document source", domain.ErrInvalidInput)
	}

	doc := &domain.Document{
		Source:      raw.Source,
		URI:         raw.URI,
		Title:       raw.Title,
		MIME:        raw.MIME,
		ContentHash: domain.HashContent(content),
		Metadata:    raw.Metadata,
		CreatedAt:   time.Now().UTC(),
	}

	stored, created, err := ix.store.InsertDocument(ctx, doc)
	if err != nil {
		return nil, false, fmt.Errorf("%w: inserting document %q: %w", domain.ErrIngestion, raw.Title, err)
	}
	if !created {
		logger.Debug("Document %q already indexed (hash %s), skipping", stored.Title, stored.ContentHash[:12])
		return stored, false, nil
	}

	segments := ix.splitter.Split(content)
	if len(segments) == 0 {
		return stored, true, nil
	}

	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			DocID:      stored.ID,
			Position:   i,
			Text:       seg.Text,
			TokenCount: seg.TokenCount,
			Metadata:   chunkMetadata(raw.Metadata, i, seg),
		}
	}

	if err := ix.embedChunks(ctx, chunks); err != nil {
		// Roll back the document row so a retry is not deduplicated
		// against a half-ingested document.
		if delErr := ix.store.DeleteDocument(ctx, stored.ID); delErr != nil {
			logger.Warn("Failed to clean up document %d after embedding failure: %v", stored.ID, delErr)
		}
		return nil, false, err
	}

	if err := ix.store.SaveChunks(ctx, chunks); err != nil {
		if delErr := ix.store.DeleteDocument(ctx, stored.ID); delErr != nil {
			logger.Warn("Failed to clean up document %d after chunk save failure: %v", stored.ID, delErr)
		}
		return nil, false, fmt.Errorf("%w: saving %d chunks for %q: %w", domain.ErrIngestion, len(chunks), raw.Title, err)
	}

	logger.Info("Indexed %q: %d chunks", stored.Title, len(chunks))
	return stored, true, nil
}

// chunkMetadata merges the parent document's metadata with one chunk's
// positional metadata. Each chunk gets its own copy so chunks never
// alias the document map or each other.
func chunkMetadata(docMeta map[string]any, index int, seg chunker.Segment) map[string]any {
	meta := make(map[string]any, len(docMeta)+3)
	for k, v := range docMeta {
		meta[k] = v
	}
	meta["chunk_index"] = index
	meta["start_char"] = seg.Start
	meta["end_char"] = seg.End
	return meta
}

// embedChunks fills in chunk embeddings, batching requests.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if ix.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = chunks[i].Text
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embedding batch %d-%d: %w", domain.ErrIngestion, start, end, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: embedding batch returned %d vectors for %d texts",
				domain.ErrIngestion, len(vectors), len(texts))
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = vectors[i-start]
		}
	}
	return nil
}

// IndexBatch ingests documents independently. A failed document is
// recorded and the rest of the batch proceeds.
func (ix *Indexer) IndexBatch(ctx context.Context, raws []domain.RawDocument) driving.BatchSummary {
	var summary driving.BatchSummary
	for _, raw := range raws {
		_, created, err := ix.Index(ctx, raw)
		switch {
		case err != nil:
			logger.Warn("Failed to index %q: %v", raw.Title, err)
			summary.Failed = append(summary.Failed, driving.BatchFailure{
				URI:   raw.URI,
				Title: raw.Title,
				Err:   err,
			})
		case created:
			summary.Indexed++
		default:
			summary.Deduplicated++
		}
	}
	return summary
}

// Delete removes a document and its chunks.
func (ix *Indexer) Delete(ctx context.Context, documentID int64) error {
	return ix.store.DeleteDocument(ctx, documentID)
}

// Stats reports corpus counts annotated with the embedding
// configuration.
func (ix *Indexer) Stats(ctx context.Context) (domain.Stats, error) {
	stats, err := ix.store.Stats(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	if ix.embedder != nil {
		stats.EmbeddingModel = ix.embedder.ModelName()
		stats.EmbeddingDimension = ix.embedder.Dimensions()
	}
	return stats, nil
}
