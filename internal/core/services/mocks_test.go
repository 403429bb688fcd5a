package services

import (
	"context"
	"sync"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	dims      int

	batchCalls [][]string
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.batchCalls = append(m.batchCalls, append([]string(nil), texts...))
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 768
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockVectorSearcher implements driven.VectorSearcher for testing.
type mockVectorSearcher struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorSearcher) NearestChunks(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer      string
	generateErr error

	calls   int
	prompts []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// recordingObserver implements driven.AgentObserver for testing.
type recordingObserver struct {
	mu          sync.Mutex
	transitions []domain.AgentState
	completed   bool
	errs        []error
}

func (o *recordingObserver) OnTransition(_ string, state domain.AgentState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, state)
}

func (o *recordingObserver) OnComplete(_ string, _ domain.AgentState, _ domain.Timings, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = true
}

func (o *recordingObserver) OnError(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

// mockDocumentStore implements driven.DocumentStore for testing.
type mockDocumentStore struct {
	mu        sync.Mutex
	nextID    int64
	byHash    map[string]*domain.Document
	byID      map[int64]*domain.Document
	chunks    map[int64][]domain.Chunk
	insertErr error
	saveErr   error
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{
		byHash: make(map[string]*domain.Document),
		byID:   make(map[int64]*domain.Document),
		chunks: make(map[int64][]domain.Chunk),
	}
}

func (m *mockDocumentStore) InsertDocument(_ context.Context, doc *domain.Document) (*domain.Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, false, m.insertErr
	}
	if existing, ok := m.byHash[doc.ContentHash]; ok {
		return existing, false, nil
	}
	m.nextID++
	stored := *doc
	stored.ID = m.nextID
	m.byHash[stored.ContentHash] = &stored
	m.byID[stored.ID] = &stored
	return &stored, true, nil
}

func (m *mockDocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, c := range chunks {
		m.chunks[c.DocID] = append(m.chunks[c.DocID], c)
	}
	return nil
}

func (m *mockDocumentStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentStore) GetDocumentByHash(_ context.Context, hash string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentStore) DeleteDocument(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.byHash, doc.ContentHash)
	delete(m.byID, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockDocumentStore) Stats(_ context.Context) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var chunkCount int64
	for _, cs := range m.chunks {
		chunkCount += int64(len(cs))
	}
	return domain.Stats{
		Documents: int64(len(m.byID)),
		Chunks:    chunkCount,
	}, nil
}

// --- Test fixtures ---

func anchorHits() []driven.VectorHit {
	return []driven.VectorHit{
		{
			Chunk:    domain.Chunk{ID: 1, DocID: 1, Position: 0, Text: "Deployment uses blue-green rollout.", Metadata: map[string]any{"repo": "org/infra"}},
			Document: domain.Document{ID: 1, Source: domain.SourceGitHub, URI: "github://org/infra/docs/deploy.md", Title: "Deploy Guide", MIME: "text/markdown"},
			Distance: 0.1,
		},
		{
			Chunk:    domain.Chunk{ID: 2, DocID: 2, Position: 0, Text: "Rollbacks are triggered from the release dashboard.", Metadata: map[string]any{"repo": "org/app"}},
			Document: domain.Document{ID: 2, Source: domain.SourceGitHub, URI: "github://org/app/docs/release.md", Title: "Release Process", MIME: "text/markdown"},
			Distance: 0.2,
		},
		{
			Chunk:    domain.Chunk{ID: 3, DocID: 3, Position: 0, Text: "Onboarding checklist for new engineers.", Metadata: nil},
			Document: domain.Document{ID: 3, Source: domain.SourceGDrive, URI: "gdrive://file/abc", Title: "Onboarding", MIME: "application/vnd.google-apps.document"},
			Distance: 0.4,
		},
	}
}
