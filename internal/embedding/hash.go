package embedding

import (
	"context"
	"fmt"
	"math"

	"docrag/internal/textutil"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashDimension is the vector size of a HashEmbedder built with dimension <= 0.
const DefaultHashDimension = 256

// HashEmbedder is a deterministic, offline embedder. Each token is hashed into one of
// dim buckets with a hash-derived sign, and the result is L2-normalized. Texts sharing
// vocabulary land close together, which is enough for local runs and tests.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hashing embedder producing vectors of length dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

// Embed hashes the tokens of text into a unit vector. Text without tokens yields the zero vector.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	vec := make([]float32, h.dim)
	for _, token := range textutil.Tokenize(text) {
		sum := xxhash.Sum64String(token)
		bucket := sum % uint64(h.dim)
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// Dimension returns the vector size.
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

// Model identifies the hashing scheme and its size.
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("xxhash-%d", h.dim)
}
