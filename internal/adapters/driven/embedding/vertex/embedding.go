// Package vertex provides an embedding service adapter using Vertex AI.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel    = "text-embedding-004"
	DefaultLocation = "us-central1"
	DefaultTimeout  = 60 * time.Second

	// scope is the OAuth scope for the Vertex AI API.
	scope = "https://www.googleapis.com/auth/cloud-platform"
)

// Model dimensions for Vertex embedding models.
var modelDimensions = map[string]int{
	"text-embedding-004":              768,
	"text-embedding-005":              768,
	"text-multilingual-embedding-002": 768,
}

// Config holds configuration for the Vertex embedding service.
type Config struct {
	// Project is the GCP project ID (required).
	Project string

	// Location is the Vertex AI region (default: us-central1).
	Location string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// TokenSource overrides application default credentials.
	TokenSource oauth2.TokenSource
}

// EmbeddingService generates embeddings using Vertex AI.
type EmbeddingService struct {
	client     *http.Client
	endpoint   string
	model      string
	dimensions int
}

// predictRequest is the Vertex predict API request format.
type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictInstance struct {
	Content string `json:"content"`
}

// predictResponse is the Vertex predict API response format.
type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new Vertex embedding service using
// application default credentials unless a token source is supplied.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("vertex: project is required")
	}
	if cfg.Location == "" {
		cfg.Location = DefaultLocation
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 768
	}

	ts := cfg.TokenSource
	if ts == nil {
		var err error
		ts, err = google.DefaultTokenSource(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("vertex: loading credentials: %w", err)
		}
	}

	client := oauth2.NewClient(ctx, ts)
	client.Timeout = cfg.Timeout

	endpoint := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		cfg.Location, cfg.Project, cfg.Location, cfg.Model,
	)

	return &EmbeddingService{
		client:     client,
		endpoint:   endpoint,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("vertex: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := predictRequest{Instances: make([]predictInstance, len(texts))}
	for i, t := range texts {
		req.Instances[i] = predictInstance{Content: t}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("vertex: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vertex: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vertex: sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vertex: reading response: %w", err)
	}

	var pred predictResponse
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("vertex: decoding response (status %d): %w", resp.StatusCode, err)
	}
	if pred.Error != nil {
		return nil, fmt.Errorf("vertex: API error %d: %s", pred.Error.Code, pred.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vertex: unexpected status %d", resp.StatusCode)
	}
	if len(pred.Predictions) != len(texts) {
		return nil, fmt.Errorf("vertex: got %d embeddings for %d texts", len(pred.Predictions), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for i, p := range pred.Predictions {
		embeddings[i] = p.Embeddings.Values
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model in use.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates API connectivity with a minimal embedding request.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("vertex: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
