package driven

import "context"

// LLMService produces text completions. The contract is deliberately
// narrow: one generate operation plus identification and lifecycle.
// Provider selection happens once, in configuration, not at call time.
type LLMService interface {
	// Generate produces a completion for the prompt. May fail on quota
	// or timeout; the caller bounds it with the context.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
