package rag

import "fmt"

// VectorIndex performs exact nearest-neighbour scoring by brute force.
// Vectors are stored at the position of the chunk they embed.
type VectorIndex struct {
	vectors [][]float32
	dim     int
}

// NewVectorIndex stores vectors, which must all have the same length.
// The slices are retained, not copied; callers must not modify them afterwards.
func NewVectorIndex(vectors [][]float32) (*VectorIndex, error) {
	idx := &VectorIndex{vectors: vectors}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
			continue
		}
		if len(v) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d: %w", i, len(v), idx.dim, ErrDimensionMismatch)
		}
	}
	return idx, nil
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	return len(v.vectors)
}

// Dimension returns the vector length, or 0 for an empty index.
func (v *VectorIndex) Dimension() int {
	return v.dim
}

// Distances returns the squared Euclidean distance from query to every stored vector.
func (v *VectorIndex) Distances(query []float32) ([]float64, error) {
	out := make([]float64, len(v.vectors))
	if len(v.vectors) == 0 {
		return out, nil
	}
	if len(query) != v.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w", len(query), v.dim, ErrDimensionMismatch)
	}
	for i, vec := range v.vectors {
		out[i] = squaredL2(query, vec)
	}
	return out, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
