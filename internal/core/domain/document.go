package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Source tags identify where a document was ingested from.
const (
	SourceGitHub = "github"
	SourceGDrive = "gdrive"
	SourceUpload = "upload"
	SourceAPI    = "api"
	SourceTest   = "test"
)

// Document represents an ingested document. Identity is the SHA-256 hash
// of the full content: the same text arriving from different sources, or
// from repeated syncs, collapses to a single document.
type Document struct {
	// ID is the store-assigned identifier.
	ID int64

	// Source is the ingestion source tag ("github", "gdrive", "upload", ...).
	Source string

	// URI is the stable source-specific locator.
	URI string

	// Title is the human-readable title.
	Title string

	// MIME is the content type.
	MIME string

	// ContentHash is the SHA-256 hex digest of the full content.
	// Unique across the store.
	ContentHash string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time
}

// Chunk is a bounded, possibly-overlapping span of a document's text.
// It is the unit of embedding and retrieval. Chunks are immutable once
// written and are deleted only with their parent document.
type Chunk struct {
	// ID is the store-assigned identifier.
	ID int64

	// DocID links to the parent Document.
	DocID int64

	// Position is the 0-based ordinal within the document.
	Position int

	// Text is the chunk content.
	Text string

	// TokenCount is the approximate token count of Text.
	TokenCount int

	// Embedding is the vector representation.
	Embedding []float32

	// Metadata is the parent document's metadata merged with the chunk's
	// positional metadata (start_char, end_char, chunk_index).
	Metadata map[string]any
}

// RawDocument is connector output before indexing: content plus the
// metadata the connector could determine. The content hash is always
// computed by the indexer, never supplied.
type RawDocument struct {
	Source   string
	URI      string
	Title    string
	MIME     string
	Content  string
	Metadata map[string]any
}

// HashContent returns the SHA-256 hex digest used as document identity.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Stats describes the indexed corpus.
type Stats struct {
	Documents          int64  `json:"documents"`
	Chunks             int64  `json:"chunks"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}
