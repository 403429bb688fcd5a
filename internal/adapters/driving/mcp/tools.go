package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query               string   `json:"query" jsonschema:"the search query to run over the documentation"`
	Limit               int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty" jsonschema:"minimum similarity score in [0,1] (default 0.7)"`
	Source              string   `json:"source,omitempty" jsonschema:"restrict results to one source (github, gdrive, upload)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	Similarity float64 `json:"similarity_score"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the documentation"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of context chunks to retrieve (default 10)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string         `json:"answer"`
	Sources      []SourceOutput `json:"sources"`
	TraceID      string         `json:"trace_id"`
	FallbackUsed bool           `json:"fallback_used"`
	Error        string         `json:"error,omitempty"`
}

// SourceOutput is one cited source in an answer.
type SourceOutput struct {
	Index      int     `json:"index"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	Similarity float64 `json:"similarity_score"`
}

// StatsInput is the input schema for the stats tool. It takes no
// arguments.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Documents          int64  `json:"documents"`
	Chunks             int64  `json:"chunks"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed documentation by semantic similarity",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered from the indexed documentation with source citations",
	}, s.handleAsk)

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Report how many documents and chunks are indexed and which embedding model is in use",
		}, s.handleStats)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	filter := domain.DefaultFilter()
	if input.Limit > 0 {
		filter.TopK = input.Limit
	}
	if input.SimilarityThreshold != nil {
		filter.SimilarityThreshold = *input.SimilarityThreshold
	}
	filter.Source = input.Source

	candidates, err := s.ports.Search.Retrieve(ctx, input.Query, filter)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(candidates)),
		Count:   len(candidates),
	}
	for i, cand := range candidates {
		output.Results[i] = SearchResultOutput{
			ChunkID:    cand.Chunk.ID,
			DocumentID: cand.Document.ID,
			Title:      cand.Document.Title,
			URI:        cand.Document.URI,
			Similarity: cand.Similarity,
			Content:    cand.Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	filter := domain.DefaultFilter()
	if input.Limit > 0 {
		filter.TopK = input.Limit
	}

	resp, err := s.ports.Agent.Ask(ctx, input.Question, filter)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:       resp.Answer,
		Sources:      make([]SourceOutput, len(resp.Sources)),
		TraceID:      resp.TraceID,
		FallbackUsed: resp.FallbackUsed,
		Error:        resp.Error,
	}
	for i, src := range resp.Sources {
		output.Sources[i] = SourceOutput{
			Index:      src.Index,
			Title:      src.Title,
			URI:        src.URI,
			Similarity: src.Similarity,
		}
	}

	return nil, output, nil
}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("collecting stats: %w", err)
	}

	return nil, StatsOutput{
		Documents:          stats.Documents,
		Chunks:             stats.Chunks,
		EmbeddingModel:     stats.EmbeddingModel,
		EmbeddingDimension: stats.EmbeddingDimension,
	}, nil
}
