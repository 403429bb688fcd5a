package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - Vertex AI (text-embedding-004, 768 dimensions)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Output order
	// matches input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size. Determined by the
	// model and must match the store's vector column.
	Dimensions() int

	// ModelName returns the name of the embedding model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
