package rag

import (
	"context"
	"fmt"
	"strings"

	"docrag/internal/chunking"
	"docrag/internal/embedding"
)

// Hit is a chunk returned by Index.Search together with its scores.
type Hit struct {
	Chunk    chunking.Chunk
	Position int
	Rank     int
	Score    float64
	Distance float64
	Lexical  float64
}

// Index answers hybrid queries over one document's chunks. It is immutable once built;
// a changed document needs a new Index.
type Index struct {
	chunks   []chunking.Chunk
	lexical  *LexicalIndex
	vectors  *VectorIndex
	embedder embedding.Embedder
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Chunks returns the indexed chunks with their embeddings. The slice must not be modified.
func (ix *Index) Chunks() []chunking.Chunk {
	return ix.chunks
}

// Dimension returns the vector dimension, or 0 for an empty index.
func (ix *Index) Dimension() int {
	return ix.vectors.Dimension()
}

// Search ranks the chunks against query and returns the best min(topK, Len()).
// An empty index answers every query, blank ones included, with no hits.
func (ix *Index) Search(ctx context.Context, query string, topK int, alpha float64) ([]Hit, error) {
	if ix.Len() == 0 {
		return []Hit{}, nil
	}
	ranker, err := NewHybridRanker(alpha)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	distances, err := ix.vectors.Distances(queryVec)
	if err != nil {
		return nil, err
	}
	lexical := ix.lexical.Scores(query)

	ranked, err := ranker.Rank(lexical, distances, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(ranked))
	for i, r := range ranked {
		hits[i] = Hit{
			Chunk:    ix.chunks[r.Position],
			Position: r.Position,
			Rank:     i + 1,
			Score:    r.Score,
			Distance: r.Distance,
			Lexical:  r.Lexical,
		}
	}
	return hits, nil
}
