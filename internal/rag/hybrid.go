package rag

import (
	"fmt"
	"sort"
)

// DefaultAlpha weights vector and lexical evidence equally.
const DefaultAlpha = 0.5

// Ranked is one scored corpus position.
type Ranked struct {
	Position int
	Score    float64
	Distance float64
	Lexical  float64
}

// HybridRanker fuses vector distances and BM25 scores:
//
//	score = alpha*(-distance) + (1-alpha)*bm25
//
// The two signals are not normalized, so their scales differ; alpha is applied to raw values.
type HybridRanker struct {
	alpha float64
}

// NewHybridRanker creates a ranker. alpha must lie in [0, 1].
func NewHybridRanker(alpha float64) (*HybridRanker, error) {
	if alpha < 0 || alpha > 1 {
		return nil, &ValidationError{Field: "alpha", Message: fmt.Sprintf("must be between 0 and 1, got %v", alpha)}
	}
	return &HybridRanker{alpha: alpha}, nil
}

// Alpha returns the vector weight.
func (h *HybridRanker) Alpha() float64 {
	return h.alpha
}

// Rank scores every position and returns the best min(topK, n) in descending score order.
// Equal scores keep corpus order. topK <= 0 yields no results.
func (h *HybridRanker) Rank(lexical, distances []float64, topK int) ([]Ranked, error) {
	if len(lexical) != len(distances) {
		return nil, fmt.Errorf("%d lexical scores vs %d distances: %w", len(lexical), len(distances), ErrLengthMismatch)
	}
	if topK <= 0 || len(lexical) == 0 {
		return []Ranked{}, nil
	}

	ranked := make([]Ranked, len(lexical))
	for i := range lexical {
		ranked[i] = Ranked{
			Position: i,
			Score:    h.alpha*(-distances[i]) + (1-h.alpha)*lexical[i],
			Distance: distances[i],
			Lexical:  lexical[i],
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked, nil
}
