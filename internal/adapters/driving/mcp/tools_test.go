package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
)

type mockSearchService struct {
	candidates []domain.Candidate
	err        error
	gotFilter  domain.SearchFilter
}

func (m *mockSearchService) Retrieve(_ context.Context, _ string, filter domain.SearchFilter) ([]domain.Candidate, error) {
	m.gotFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

type mockIndexService struct {
	stats domain.Stats
	err   error
}

func (m *mockIndexService) Index(context.Context, domain.RawDocument) (*domain.Document, bool, error) {
	return nil, false, nil
}

func (m *mockIndexService) IndexBatch(context.Context, []domain.RawDocument) driving.BatchSummary {
	return driving.BatchSummary{}
}

func (m *mockIndexService) Delete(context.Context, int64) error { return nil }

func (m *mockIndexService) Stats(context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

type mockAgentService struct {
	resp *domain.AgentResponse
	err  error
}

func (m *mockAgentService) Ask(_ context.Context, _ string, _ domain.SearchFilter) (*domain.AgentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestNewServer_MissingPorts(t *testing.T) {
	_, err := NewServer(&Ports{})
	assert.ErrorIs(t, err, ErrMissingSearchService)

	_, err = NewServer(&Ports{Search: &mockSearchService{}})
	assert.ErrorIs(t, err, ErrMissingAgentService)
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			candidates: []domain.Candidate{
				{
					Chunk:      domain.Chunk{ID: 7, DocID: 1, Text: "Deployment uses blue-green rollout."},
					Document:   domain.Document{ID: 1, Title: "Deploy Guide", URI: "github://org/repo/deploy.md"},
					Similarity: 0.95,
				},
			},
		}
		server, err := NewServer(&Ports{Search: mockSearch, Agent: &mockAgentService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "deploy", Limit: 10})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, int64(7), output.Results[0].ChunkID)
		assert.Equal(t, "Deploy Guide", output.Results[0].Title)
		assert.Equal(t, 0.95, output.Results[0].Similarity)
	})

	t.Run("applies filter options", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch, Agent: &mockAgentService{}})
		require.NoError(t, err)

		threshold := 0.4
		_, _, err = server.handleSearch(ctx, nil, SearchInput{
			Query:               "deploy",
			Limit:               5,
			SimilarityThreshold: &threshold,
			Source:              "github",
		})

		require.NoError(t, err)
		assert.Equal(t, 5, mockSearch.gotFilter.TopK)
		assert.Equal(t, 0.4, mockSearch.gotFilter.SimilarityThreshold)
		assert.Equal(t, "github", mockSearch.gotFilter.Source)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Search: mockSearch, Agent: &mockAgentService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "deploy"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns structured answer", func(t *testing.T) {
		mockAgent := &mockAgentService{
			resp: &domain.AgentResponse{
				Answer:  "Le déploiement utilise un rollout blue-green [Source 1].",
				TraceID: "trace-1",
				Sources: []domain.SourceAttribution{
					{Index: 1, Title: "Deploy Guide", URI: "github://org/repo/deploy.md", Similarity: 0.9},
				},
			},
		}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Agent: mockAgent})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "comment déployer ?"})

		require.NoError(t, err)
		assert.Equal(t, mockAgent.resp.Answer, output.Answer)
		assert.Equal(t, "trace-1", output.TraceID)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "Deploy Guide", output.Sources[0].Title)
		assert.False(t, output.FallbackUsed)
	})

	t.Run("surfaces validation error", func(t *testing.T) {
		mockAgent := &mockAgentService{err: domain.ErrInvalidInput}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Agent: mockAgent})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: ""})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleStats(t *testing.T) {
	ctx := context.Background()

	t.Run("reports corpus counts", func(t *testing.T) {
		mockIndex := &mockIndexService{
			stats: domain.Stats{
				Documents:          12,
				Chunks:             340,
				EmbeddingModel:     "text-embedding-004",
				EmbeddingDimension: 768,
			},
		}
		server, err := NewServer(&Ports{
			Search: &mockSearchService{},
			Agent:  &mockAgentService{},
			Index:  mockIndex,
		})
		require.NoError(t, err)

		_, output, err := server.handleStats(ctx, nil, StatsInput{})

		require.NoError(t, err)
		assert.Equal(t, int64(12), output.Documents)
		assert.Equal(t, int64(340), output.Chunks)
		assert.Equal(t, "text-embedding-004", output.EmbeddingModel)
		assert.Equal(t, 768, output.EmbeddingDimension)
	})

	t.Run("returns error on store failure", func(t *testing.T) {
		mockIndex := &mockIndexService{err: errors.New("store unavailable")}
		server, err := NewServer(&Ports{
			Search: &mockSearchService{},
			Agent:  &mockAgentService{},
			Index:  mockIndex,
		})
		require.NoError(t, err)

		_, _, err = server.handleStats(ctx, nil, StatsInput{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store unavailable")
	})
}
