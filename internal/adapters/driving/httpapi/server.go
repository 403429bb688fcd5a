// Package httpapi exposes search, ask and document management over
// HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// requestTimeout bounds one API request end to end.
const requestTimeout = 60 * time.Second

// maxRequestBody caps request bodies at 10MB; document uploads are the
// largest payloads.
const maxRequestBody = 10 << 20

// Server routes API requests to the core services.
type Server struct {
	search  driving.SearchService
	agent   driving.AgentService
	indexer driving.IndexService
	mux     *http.ServeMux
}

// NewServer creates the API server over the given services.
func NewServer(search driving.SearchService, agent driving.AgentService, indexer driving.IndexService) *Server {
	s := &Server{
		search:  search,
		agent:   agent,
		indexer: indexer,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	s.mux.HandleFunc("POST /documents", s.handleIndexDocument)
	s.mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	s.mux.ServeHTTP(w, r.WithContext(ctx))
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// errorBody is the JSON shape for request-level failures.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
