// Package ai provides factory functions for creating AI service
// adapters from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	openaiembed "github.com/docpilot-labs/docpilot/internal/adapters/driven/embedding/openai"
	vertexembed "github.com/docpilot-labs/docpilot/internal/adapters/driven/embedding/vertex"
	openaillm "github.com/docpilot-labs/docpilot/internal/adapters/driven/llm/openai"
	vertexllm "github.com/docpilot-labs/docpilot/internal/adapters/driven/llm/vertex"
	"github.com/docpilot-labs/docpilot/internal/config"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// Services bundles the provider-backed AI adapters.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// CreateServices builds the embedding and LLM services for the
// configured provider. Provider selection is an explicit switch; an
// unknown name is an error, never a silent fallback.
func CreateServices(ctx context.Context, cfg config.ProviderConfig) (*Services, error) {
	embedding, err := CreateEmbeddingService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llm, err := CreateLLMService(ctx, cfg)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	return &Services{Embedding: embedding, LLM: llm}, nil
}

// CreateEmbeddingService builds an embedding service for the
// configured provider.
func CreateEmbeddingService(ctx context.Context, cfg config.ProviderConfig) (driven.EmbeddingService, error) {
	switch cfg.Name {
	case "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil
	case "vertex":
		svc, err := vertexembed.NewEmbeddingService(ctx, vertexembed.Config{
			Project:  cfg.VertexProject,
			Location: cfg.VertexLocation,
			Model:    cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrEmbeddingUnavailable, cfg.Name)
	}
}

// CreateLLMService builds an LLM service for the configured provider.
func CreateLLMService(ctx context.Context, cfg config.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Name {
	case "openai":
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.ChatModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil
	case "vertex":
		svc, err := vertexllm.NewLLMService(ctx, vertexllm.Config{
			Project:  cfg.VertexProject,
			Location: cfg.VertexLocation,
			Model:    cfg.ChatModel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrLLMUnavailable, cfg.Name)
	}
}

// ValidateServices checks connectivity of both services with bounded
// pings.
func ValidateServices(ctx context.Context, svcs *Services) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svcs.Embedding.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if err := svcs.LLM.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}
