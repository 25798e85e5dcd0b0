package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_cache.go -package=mocks docrag/internal/storage Cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docrag/internal/chunking"
	"docrag/internal/contextutil"
)

// SaveResult reports the records written by Cache.Save.
type SaveResult struct {
	DocumentID string
	// ChunkIDs is aligned with the saved chunk list.
	ChunkIDs []string
	// StaleChunkIDs belong to replaced versions of the same source.
	StaleChunkIDs []string
}

// Cache persists chunk lists, embeddings included, keyed by content and parameters.
type Cache interface {
	// Load returns the chunks cached under key, or ErrNotFound.
	Load(ctx context.Context, key CacheKey) ([]chunking.Chunk, error)
	// Save replaces any cached version of sourceID with chunks.
	Save(ctx context.Context, sourceID string, key CacheKey, chunks []chunking.Chunk) (*SaveResult, error)
}

// SQLCache implements Cache on the documents and chunks tables.
type SQLCache struct {
	db *sql.DB
}

// NewSQLCache creates a cache over a migrated database.
func NewSQLCache(db *sql.DB) *SQLCache {
	return &SQLCache{db: db}
}

// Load returns the chunks cached under key, or ErrNotFound.
func (c *SQLCache) Load(ctx context.Context, key CacheKey) ([]chunking.Chunk, error) {
	doc, err := (&DocumentRepo{db: c.db}).GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	records, err := (&ChunkRepo{db: c.db}).ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	chunks := make([]chunking.Chunk, len(records))
	for i, rec := range records {
		chunk, err := fromRecord(rec, doc.SourceID)
		if err != nil {
			return nil, err
		}
		chunks[i] = chunk
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "chunk cache hit",
		"document_id", doc.ID,
		"source", doc.SourceID,
		"chunks", len(chunks),
	)
	return chunks, nil
}

// Save replaces any cached version of sourceID, and any entry already stored under
// key, with chunks. It runs in a single transaction.
func (c *SQLCache) Save(ctx context.Context, sourceID string, key CacheKey, chunks []chunking.Chunk) (*SaveResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	docs := &DocumentRepo{db: tx}
	chunkRepo := &ChunkRepo{db: tx}

	stale, err := docs.ListBySource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if existing, err := docs.GetByKey(ctx, key); err == nil {
		stale = append(stale, *existing)
	} else if err != ErrNotFound {
		return nil, err
	}

	result := &SaveResult{}
	seen := make(map[string]bool, len(stale))
	for _, d := range stale {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		ids, err := chunkRepo.ListIDsByDocument(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		result.StaleChunkIDs = append(result.StaleChunkIDs, ids...)
		if err := chunkRepo.DeleteByDocument(ctx, d.ID); err != nil {
			return nil, err
		}
		if err := docs.Delete(ctx, d.ID); err != nil {
			return nil, err
		}
	}

	doc := &DocumentRecord{
		SourceID:       sourceID,
		Hash:           key.Hash,
		Params:         key.Params,
		EmbeddingModel: key.EmbeddingModel,
	}
	if err := docs.Insert(ctx, doc); err != nil {
		return nil, err
	}
	result.DocumentID = doc.ID

	result.ChunkIDs = make([]string, len(chunks))
	for i, chunk := range chunks {
		rec := toRecord(chunk, doc.ID, i)
		if err := chunkRepo.Insert(ctx, &rec); err != nil {
			return nil, err
		}
		result.ChunkIDs[i] = rec.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chunk cache: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chunk cache saved",
		"document_id", doc.ID,
		"source", sourceID,
		"chunks", len(chunks),
		"stale_chunks", len(result.StaleChunkIDs),
	)
	return result, nil
}

func toRecord(c chunking.Chunk, documentID string, index int) ChunkRecord {
	kinds := make([]string, len(c.Kinds))
	for i, k := range c.Kinds {
		kinds[i] = k.String()
	}
	return ChunkRecord{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		ChunkIndex: index,
		Text:       c.Text,
		HeaderPath: c.HeaderPath,
		Kinds:      kinds,
		Type:       c.Type,
		Size:       c.Size,
		Note:       c.Note,
		Embedding:  c.Embedding,
	}
}

func fromRecord(rec ChunkRecord, sourceID string) (chunking.Chunk, error) {
	kinds := make([]chunking.BlockKind, len(rec.Kinds))
	for i, name := range rec.Kinds {
		if err := kinds[i].UnmarshalText([]byte(name)); err != nil {
			return chunking.Chunk{}, fmt.Errorf("chunk %s: %w", rec.ID, err)
		}
	}
	return chunking.Chunk{
		Text:       rec.Text,
		HeaderPath: rec.HeaderPath,
		Kinds:      kinds,
		Type:       rec.Type,
		Size:       rec.Size,
		SourceID:   sourceID,
		Embedding:  rec.Embedding,
		Note:       rec.Note,
	}, nil
}
