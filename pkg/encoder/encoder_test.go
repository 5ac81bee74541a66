package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridial/faceit/pkg/types"
)

// TestPlaceholderEncodeDimension tests the embedding length
func TestPlaceholderEncodeDimension(t *testing.T) {
	enc := NewPlaceholder()

	embedding, err := enc.Encode([]byte("some image bytes"))
	require.NoError(t, err)
	assert.Len(t, embedding, types.EmbeddingDim)
}

// TestPlaceholderEncodeDeterministic tests that identical inputs produce
// identical embeddings
func TestPlaceholderEncodeDeterministic(t *testing.T) {
	enc := NewPlaceholder()
	data := []byte("the same image twice")

	first, err := enc.Encode(data)
	require.NoError(t, err)
	second, err := enc.Encode(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestPlaceholderEncodeNormalized tests that the output is unit length
func TestPlaceholderEncodeNormalized(t *testing.T) {
	enc := NewPlaceholder()

	embedding, err := enc.Encode([]byte("image bytes for normalization check"))
	require.NoError(t, err)

	var sum float64
	for _, x := range embedding {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

// TestPlaceholderEncodeDistinctInputs tests that different inputs produce
// different embeddings
func TestPlaceholderEncodeDistinctInputs(t *testing.T) {
	enc := NewPlaceholder()

	a, err := enc.Encode([]byte("first image with enough bytes to spread across chunks"))
	require.NoError(t, err)
	b, err := enc.Encode([]byte("second image, completely different pixel content here!"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

// TestPlaceholderEncodeEmptyInput tests the empty-input error
func TestPlaceholderEncodeEmptyInput(t *testing.T) {
	enc := NewPlaceholder()

	_, err := enc.Encode(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
