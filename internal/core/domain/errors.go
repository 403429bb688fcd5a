package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed filter or request.
	// Validation failures reject the request with no side effects.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrieval indicates the store or embedding call failed during
	// a query. Caught at the agent boundary, never propagated to the
	// transport layer.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the language model call failed or timed out.
	ErrGeneration = errors.New("generation failed")

	// ErrIngestion indicates a per-document failure during batch
	// ingestion. The batch continues with the next document.
	ErrIngestion = errors.New("ingestion failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Nothing can be indexed or retrieved without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not
	// configured. Questions cannot be answered, search still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrAuthInvalid indicates the connector credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")
)
