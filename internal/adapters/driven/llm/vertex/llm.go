// Package vertex provides an LLM service adapter using Vertex AI
// Gemini models.
package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel    = "gemini-1.5-flash"
	DefaultLocation = "us-central1"
	DefaultTimeout  = 120 * time.Second

	scope = "https://www.googleapis.com/auth/cloud-platform"
)

// systemPrompt constrains the model to the supplied context and names
// the exact refusal it must produce when that context is insufficient.
const systemPrompt = `Tu es un assistant expert qui répond uniquement en utilisant le contexte fourni.
Si le contexte ne contient pas d'informations pertinentes, réponds exactement:
'Je ne trouve pas d'informations pertinentes dans la documentation pour répondre à cette question.'

Format tes réponses avec des citations claires des sources.`

// Config holds configuration for the Vertex LLM service.
type Config struct {
	// Project is the GCP project ID (required).
	Project string

	// Location is the Vertex AI region (default: us-central1).
	Location string

	// Model is the Gemini model to use (default: gemini-1.5-flash).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// TokenSource overrides application default credentials.
	TokenSource oauth2.TokenSource
}

// LLMService generates text using the Vertex generateContent API.
type LLMService struct {
	client   *http.Client
	endpoint string
	model    string
}

// generateRequest is the Vertex generateContent request format.
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

// generateResponse is the Vertex generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Vertex LLM service using application
// default credentials unless a token source is supplied.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
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
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		cfg.Location, cfg.Project, cfg.Location, cfg.Model,
	)

	return &LLMService{
		client:   client,
		endpoint: endpoint,
		model:    cfg.Model,
	}, nil
}

// Generate produces a completion for the given prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		GenerationConfig: &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("vertex: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vertex: creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vertex: sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("vertex: reading response: %w", err)
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return "", fmt.Errorf("vertex: decoding response (status %d): %w", resp.StatusCode, err)
	}
	if gen.Error != nil {
		return "", fmt.Errorf("vertex: API error %d: %s", gen.Error.Code, gen.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vertex: unexpected status %d", resp.StatusCode)
	}
	if len(gen.Candidates) == 0 {
		return "", fmt.Errorf("vertex: no candidates returned")
	}

	var sb strings.Builder
	for _, p := range gen.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// ModelName returns the name of the model in use.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates API connectivity with a minimal request.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1})
	if err != nil {
		return fmt.Errorf("vertex: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
