package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"docrag/internal/chunking"
	"docrag/internal/contextutil"
	"docrag/internal/embedding"
	"docrag/internal/rag"
	"docrag/internal/storage"
	"docrag/internal/vectorstore"
)

// Options configures the optional collaborators of a Pipeline.
type Options struct {
	// Cache persists chunk lists between runs. Nil disables caching.
	Cache storage.Cache
	// VectorStore mirrors chunk vectors externally. Nil disables publishing.
	VectorStore vectorstore.VectorStore
	Collection  string
	// Workers bounds concurrent embedding calls.
	Workers int
}

// Pipeline turns one document into a searchable index.
// It checks the chunk cache, chunks and embeds on a miss, and mirrors vectors to Qdrant.
type Pipeline struct {
	chunker     *chunking.Chunker
	embedder    embedding.Embedder
	builder     *rag.Builder
	cache       storage.Cache
	vectorStore vectorstore.VectorStore
	collection  string
}

// Result is the outcome of indexing one document.
type Result struct {
	SourceID string
	Index    *rag.Index
	// Chunks is the full chunk list, sentinels included.
	Chunks    []chunking.Chunk
	Stats     ChunkStats
	CacheHit  bool
	Published int
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(chunker *chunking.Chunker, embedder embedding.Embedder, opts Options) *Pipeline {
	collection := opts.Collection
	if collection == "" {
		collection = vectorstore.DefaultCollection
	}
	return &Pipeline{
		chunker:     chunker,
		embedder:    embedder,
		builder:     rag.NewBuilder(embedder, opts.Workers),
		cache:       opts.Cache,
		vectorStore: opts.VectorStore,
		collection:  collection,
	}
}

// IndexFile reads path and indexes its contents with the path as source ID.
// An unreadable file yields an empty index over the error sentinel, not an error.
func (p *Pipeline) IndexFile(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "document unreadable", "path", path, "error", err)
		chunks := p.chunker.ChunkFile(ctx, path)
		return p.build(ctx, path, chunks, false)
	}
	return p.IndexText(ctx, string(content), path)
}

// IndexText indexes document text tagged with sourceID.
func (p *Pipeline) IndexText(ctx context.Context, text, sourceID string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	hash := sha256.Sum256([]byte(text))
	key := storage.CacheKey{
		Hash:           fmt.Sprintf("%x", hash),
		Params:         p.chunker.Params().String(),
		EmbeddingModel: p.embedder.Model(),
	}

	if p.cache != nil {
		cached, err := p.cache.Load(ctx, key)
		switch {
		case err == nil:
			logger.InfoContext(ctx, "using cached chunks", "source", sourceID, "chunks", len(cached))
			for i := range cached {
				cached[i].SourceID = sourceID
			}
			return p.build(ctx, sourceID, cached, true)
		case !errors.Is(err, storage.ErrNotFound):
			// Cache trouble only costs a re-embed.
			logger.WarnContext(ctx, "chunk cache lookup failed", "source", sourceID, "error", err)
		}
	}

	chunks := p.chunker.Chunk(ctx, text, sourceID)
	res, err := p.build(ctx, sourceID, chunks, false)
	if err != nil {
		return nil, err
	}

	// Persist the embedded chunks, or the sentinel when nothing was indexed.
	toSave := res.Index.Chunks()
	if len(toSave) == 0 {
		toSave = chunks
	}

	pointIDs := make([]string, len(toSave))
	for i := range toSave {
		pointIDs[i] = stableChunkID(sourceID, key.Hash, i)
	}
	var stale []string
	if p.cache != nil {
		saved, err := p.cache.Save(ctx, sourceID, key, toSave)
		if err != nil {
			logger.WarnContext(ctx, "failed to save chunk cache", "source", sourceID, "error", err)
		} else {
			pointIDs = saved.ChunkIDs
			stale = saved.StaleChunkIDs
		}
	}

	if p.vectorStore != nil && res.Index.Len() > 0 {
		res.Published = p.publish(ctx, res.Index, pointIDs, stale)
	}
	return res, nil
}

func (p *Pipeline) build(ctx context.Context, sourceID string, chunks []chunking.Chunk, cacheHit bool) (*Result, error) {
	idx, err := p.builder.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to build index for %s: %w", sourceID, err)
	}
	stats := ComputeChunkStats(chunks)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "indexed document",
		"source", sourceID,
		"chunks", stats.Count,
		"sentinels", stats.Sentinels,
		"forced_splits", stats.ForcedSplits,
		"cache_hit", cacheHit,
	)
	return &Result{
		SourceID: sourceID,
		Index:    idx,
		Chunks:   chunks,
		Stats:    stats,
		CacheHit: cacheHit,
	}, nil
}

// publish mirrors the index's vectors to the vector store and returns how many were written.
// The mirror never affects ranking, so failures are logged and reported as zero.
func (p *Pipeline) publish(ctx context.Context, idx *rag.Index, ids, stale []string) int {
	logger := contextutil.LoggerFromContext(ctx)

	if len(stale) > 0 {
		if err := p.vectorStore.Delete(ctx, p.collection, stale); err != nil {
			logger.WarnContext(ctx, "failed to delete stale points", "error", err, "count", len(stale))
			// Continue anyway - new points use new IDs
		}
	}

	if err := p.vectorStore.EnsureCollection(ctx, p.collection, idx.Dimension()); err != nil {
		logger.WarnContext(ctx, "vector mirror unavailable", "collection", p.collection, "error", err)
		return 0
	}

	chunks := idx.Chunks()
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		kinds := make([]any, len(c.Kinds))
		for j, k := range c.Kinds {
			kinds[j] = k.String()
		}
		points[i] = vectorstore.Point{
			ID:  ids[i],
			Vec: c.Embedding,
			Meta: map[string]any{
				"source_id":   c.SourceID,
				"chunk_index": i,
				"header_path": c.HeaderPath,
				"type":        c.Type,
				"kinds":       kinds,
				"size":        c.Size,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		logger.WarnContext(ctx, "failed to publish vectors", "collection", p.collection, "error", err)
		return 0
	}
	return len(points)
}

// stableChunkID derives a deterministic UUID for a chunk so re-publishing the same
// document version overwrites its points instead of duplicating them.
func stableChunkID(sourceID, hash string, index int) string {
	name := fmt.Sprintf("%s|%s|%d", sourceID, hash, index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
