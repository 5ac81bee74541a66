package encoder

import (
	"errors"
	"math"

	"github.com/veridial/faceit/pkg/types"
)

// ErrEmptyImage is returned when the input contains no image bytes
var ErrEmptyImage = errors.New("encoder: empty image data")

// Encoder converts raw image bytes into a fixed-length L2-normalized face
// embedding. Implementations wrap the actual recognition model; the rest
// of the worker is agnostic to which one is in use.
type Encoder interface {
	Encode(imageData []byte) ([]float32, error)
}

// Placeholder is a model-free encoder for development and testing: it
// hashes image content into a deterministic 512-dimensional unit vector,
// so identical inputs always produce identical embeddings and similar
// inputs produce similar ones. It is not a face model.
type Placeholder struct{}

// NewPlaceholder creates the placeholder encoder
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Encode hashes the image bytes into a normalized pseudo-embedding
func (p *Placeholder) Encode(imageData []byte) ([]float32, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}

	embedding := make([]float32, types.EmbeddingDim)

	chunkSize := len(imageData) / types.EmbeddingDim
	if chunkSize < 1 {
		chunkSize = 1
	}
	for i := 0; i < types.EmbeddingDim; i++ {
		start := i * chunkSize
		if start >= len(imageData) {
			break
		}
		end := start + chunkSize
		if end > len(imageData) {
			end = len(imageData)
		}
		var sum uint32
		for _, b := range imageData[start:end] {
			sum += uint32(b)
		}
		// Map the chunk sum into [-1, 1]
		embedding[i] = float32(sum%2000)/1000.0 - 1.0
	}

	normalize(embedding)
	return embedding, nil
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / mag)
	}
}
