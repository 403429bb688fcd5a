package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// searchRequest is the POST /search body.
type searchRequest struct {
	Query               string   `json:"query"`
	Limit               int      `json:"limit"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	SourceFilter        string   `json:"source_filter"`
	RepoFilter          string   `json:"repo_filter"`
	MimeFilter          string   `json:"mime_filter"`
}

// searchResult is one entry in the POST /search response.
type searchResult struct {
	ID         int64           `json:"id"`
	Similarity float64         `json:"similarity_score"`
	Content    string          `json:"content"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Document   documentSummary `json:"document"`
}

type documentSummary struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`
	URI    string `json:"uri"`
	Title  string `json:"title"`
	Mime   string `json:"mime_type"`
}

// searchResponse is the POST /search body on success.
type searchResponse struct {
	Query          string         `json:"query"`
	Results        []searchResult `json:"results"`
	TotalResults   int            `json:"total_results"`
	SearchMetadata searchMetadata `json:"search_metadata"`
}

type searchMetadata struct {
	Limit               int     `json:"limit"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	ElapsedMS           int64   `json:"elapsed_ms"`
}

// filterFromRequest maps request fields onto a search filter,
// defaulting the pieces the caller omitted.
func (r *searchRequest) filter() domain.SearchFilter {
	filter := domain.DefaultFilter()
	if r.Limit > 0 {
		filter.TopK = r.Limit
	}
	if r.SimilarityThreshold != nil {
		filter.SimilarityThreshold = *r.SimilarityThreshold
	}
	filter.Source = r.SourceFilter
	filter.Repo = r.RepoFilter
	filter.Mime = r.MimeFilter
	return filter
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	filter := req.filter()
	candidates, err := s.search.Retrieve(r.Context(), req.Query, filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]searchResult, len(candidates))
	for i, cand := range candidates {
		results[i] = searchResult{
			ID:         cand.Chunk.ID,
			Similarity: cand.Similarity,
			Content:    cand.Chunk.Text,
			Metadata:   cand.Chunk.Metadata,
			Document: documentSummary{
				ID:     cand.Document.ID,
				Source: cand.Document.Source,
				URI:    cand.Document.URI,
				Title:  cand.Document.Title,
				Mime:   cand.Document.MIME,
			},
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
		SearchMetadata: searchMetadata{
			Limit:               filter.TopK,
			SimilarityThreshold: filter.SimilarityThreshold,
			ElapsedMS:           time.Since(start).Milliseconds(),
		},
	})
}

// askRequest is the POST /ask body.
type askRequest struct {
	Question            string   `json:"question"`
	Limit               int      `json:"limit"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	SourceFilter        string   `json:"source_filter"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	filter := domain.DefaultFilter()
	if req.Limit > 0 {
		filter.TopK = req.Limit
	}
	if req.SimilarityThreshold != nil {
		filter.SimilarityThreshold = *req.SimilarityThreshold
	}
	filter.Source = req.SourceFilter

	resp, err := s.agent.Ask(r.Context(), req.Question, filter)
	if err != nil {
		// Only validation can error; everything downstream is folded
		// into the structured response.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// indexRequest is the POST /documents body.
type indexRequest struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	URI      string         `json:"uri"`
	Title    string         `json:"title"`
	Mime     string         `json:"mime"`
	Metadata map[string]any `json:"metadata"`
}

// indexResponse is the POST /documents body on success.
type indexResponse struct {
	DocumentID int64 `json:"document_id"`
	Created    bool  `json:"created"`
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	source := req.Source
	if source == "" {
		source = domain.SourceAPI
	}

	doc, created, err := s.indexer.Index(r.Context(), domain.RawDocument{
		Source:   source,
		URI:      req.URI,
		Title:    req.Title,
		MIME:     req.Mime,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, indexResponse{DocumentID: doc.ID, Created: created})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := s.indexer.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.indexer.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
