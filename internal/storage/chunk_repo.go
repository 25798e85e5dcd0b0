package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk into the database.
	// The chunk.ID must be set (UUID) before calling this method.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// DeleteByDocument deletes all chunks for a given document ID.
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID string) ([]string, error)
	// ListByDocument returns all chunks for a document, ordered by chunk_index.
	ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db dbtx
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	kinds, err := json.Marshal(chunk.Kinds)
	if err != nil {
		return fmt.Errorf("failed to encode kinds: %w", err)
	}
	var embedding any
	if len(chunk.Embedding) > 0 {
		b, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		embedding = string(b)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, text, header_path, kinds, type, size, note, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Text, chunk.HeaderPath,
		string(kinds), chunk.Type, chunk.Size, chunk.Note, embedding,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// DeleteByDocument deletes all chunks for a given document ID.
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

// ListIDsByDocument returns all chunk IDs for a document, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
// Used to get Qdrant point IDs for deletion when a document is replaced.
func (r *ChunkRepo) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// ListByDocument returns all chunks for a document, ordered by chunk_index.
func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, text, header_path, kinds, type, size, note, embedding
		 FROM chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		var kinds string
		var embedding sql.NullString
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Text, &c.HeaderPath,
			&kinds, &c.Type, &c.Size, &c.Note, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(kinds), &c.Kinds); err != nil {
			return nil, fmt.Errorf("failed to decode kinds for chunk %s: %w", c.ID, err)
		}
		if embedding.Valid && embedding.String != "" {
			if err := json.Unmarshal([]byte(embedding.String), &c.Embedding); err != nil {
				return nil, fmt.Errorf("failed to decode embedding for chunk %s: %w", c.ID, err)
			}
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
