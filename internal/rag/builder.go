package rag

import (
	"context"
	"fmt"
	"time"

	"docrag/internal/chunking"
	"docrag/internal/contextutil"
	"docrag/internal/embedding"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent embedding calls when the builder is given none.
const DefaultWorkers = 4

// Builder embeds chunks and assembles the lexical and vector indexes over them.
type Builder struct {
	embedder embedding.Embedder
	workers  int
}

// NewBuilder creates a builder that runs at most workers embedding calls at once.
func NewBuilder(embedder embedding.Embedder, workers int) *Builder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Builder{embedder: embedder, workers: workers}
}

// Build embeds every non-sentinel chunk in parallel, waits for all of them, and then
// builds both indexes. Chunks that already carry an embedding of the right size are
// not re-embedded. Any embedding failure aborts the build.
func (b *Builder) Build(ctx context.Context, chunks []chunking.Chunk) (*Index, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	kept := make([]chunking.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.IsSentinel() {
			continue
		}
		kept = append(kept, c)
	}

	dim := b.embedder.Dimension()
	reused := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range kept {
		if n := len(kept[i].Embedding); n > 0 && (dim <= 0 || n == dim) {
			reused++
			continue
		}
		g.Go(func() error {
			vec, err := b.embedder.Embed(gctx, kept[i].Text)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			if dim > 0 && len(vec) != dim {
				return fmt.Errorf("chunk %d embedding has dimension %d, expected %d: %w", i, len(vec), dim, ErrDimensionMismatch)
			}
			kept[i].Embedding = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "index build failed", "chunks", len(kept), "error", err)
		return nil, err
	}

	texts := make([]string, len(kept))
	vectors := make([][]float32, len(kept))
	for i, c := range kept {
		texts[i] = c.Text
		vectors[i] = c.Embedding
	}
	vecIndex, err := NewVectorIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}

	logger.InfoContext(ctx, "index built",
		"chunks", len(kept),
		"skipped_sentinels", len(chunks)-len(kept),
		"embeddings_reused", reused,
		"dimension", vecIndex.Dimension(),
		"model", b.embedder.Model(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Index{
		chunks:   kept,
		lexical:  NewLexicalIndex(texts),
		vectors:  vecIndex,
		embedder: b.embedder,
	}, nil
}
