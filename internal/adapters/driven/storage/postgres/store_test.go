package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmbeddingDim(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingDim(EmbeddingDim))

	// OpenAI text-embedding-3-small produces 1536 dimensions; the
	// schema must reject it before ingestion starts.
	err := ValidateEmbeddingDim(1536)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1536")
	assert.Contains(t, err.Error(), "vector(768)")
	assert.Contains(t, err.Error(), "text-embedding-004")
}
