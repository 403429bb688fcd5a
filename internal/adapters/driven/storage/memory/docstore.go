// Package memory provides in-memory storage adapters for tests and
// local development.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore  = (*Store)(nil)
	_ driven.VectorSearcher = (*Store)(nil)
)

// Store is an in-memory document store with brute-force vector search.
// It mirrors the Postgres store's dedup and delete semantics.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Document
	byHash map[string]int64
	chunks map[int64][]domain.Chunk
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[int64]domain.Document),
		byHash: make(map[string]int64),
		chunks: make(map[int64][]domain.Chunk),
	}
}

// InsertDocument stores a document keyed by content hash.
func (s *Store) InsertDocument(_ context.Context, doc *domain.Document) (*domain.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byHash[doc.ContentHash]; ok {
		existing := s.byID[id]
		return &existing, false, nil
	}
	s.nextID++
	stored := *doc
	stored.ID = s.nextID
	s.byID[stored.ID] = stored
	s.byHash[stored.ContentHash] = stored.ID
	return &stored, true, nil
}

// SaveChunks stores all chunks for a document.
func (s *Store) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.DocID] = append(s.chunks[c.DocID], c)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByHash retrieves a document by content hash.
func (s *Store) GetDocumentByHash(_ context.Context, hash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.byID[id]
	return &doc, nil
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.byHash, doc.ContentHash)
	delete(s.byID, id)
	delete(s.chunks, id)
	return nil
}

// Stats reports document and chunk counts.
func (s *Store) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chunkCount int64
	for _, cs := range s.chunks {
		chunkCount += int64(len(cs))
	}
	return domain.Stats{
		Documents: int64(len(s.byID)),
		Chunks:    chunkCount,
	}, nil
}

// NearestChunks runs a brute-force L2 scan over all stored chunks.
func (s *Store) NearestChunks(_ context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make([]int64, 0, len(s.chunks))
	for docID := range s.chunks {
		docIDs = append(docIDs, docID)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	var hits []driven.VectorHit
	for _, docID := range docIDs {
		doc := s.byID[docID]
		for _, c := range s.chunks[docID] {
			if len(c.Embedding) == 0 {
				continue
			}
			hits = append(hits, driven.VectorHit{
				Chunk:    c,
				Document: doc,
				Distance: l2Distance(embedding, c.Embedding),
			})
		}
	}

	// Stable sort over the (doc, position) collection order keeps
	// equal-distance hits in chunk index order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// l2Distance computes Euclidean distance. Mismatched lengths compare
// over the shorter prefix, matching a permissive scan rather than
// erroring mid-search.
func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
