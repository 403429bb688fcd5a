package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[]", vectorToString(nil))
	assert.Equal(t, "[1,2.5,-0.25]", vectorToString([]float32{1, 2.5, -0.25}))
}

func TestParseVector(t *testing.T) {
	vec, err := parseVector("[1, 2.5, -0.25]")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2.5, -0.25}, vec)

	vec, err = parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, vec)

	_, err = parseVector("1,2,3")
	assert.Error(t, err)

	_, err = parseVector("[1,x]")
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.123456, -42, 1e-7, 768}
	out, err := parseVector(vectorToString(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
