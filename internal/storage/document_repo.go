package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// dbtx is the subset of *sql.DB and *sql.Tx the repos need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetByKey gets the document cached under key.
	// Returns nil and ErrNotFound if not found.
	GetByKey(ctx context.Context, key CacheKey) (*DocumentRecord, error)
	// Insert stores a new document, generating its ID when empty.
	Insert(ctx context.Context, doc *DocumentRecord) error
	// ListBySource returns every cached version of a source, newest first.
	ListBySource(ctx context.Context, sourceID string) ([]DocumentRecord, error)
	// Delete removes a document and, through the foreign key, its chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db dbtx
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetByKey gets the document cached under key.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByKey(ctx context.Context, key CacheKey) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source_id, hash, params, embedding_model, created_at FROM documents
		 WHERE hash = ? AND params = ? AND embedding_model = ?`,
		key.Hash, key.Params, key.EmbeddingModel,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// Insert stores a new document, generating its ID when empty.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_id, hash, params, embedding_model, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		doc.ID, doc.SourceID, doc.Hash, doc.Params, doc.EmbeddingModel,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// ListBySource returns every cached version of a source, newest first.
func (r *DocumentRepo) ListBySource(ctx context.Context, sourceID string) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, hash, params, embedding_model, created_at FROM documents
		 WHERE source_id = ? ORDER BY created_at DESC, id`,
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// Delete removes a document and, through the foreign key, its chunks.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var createdAtStr string
	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.Hash, &doc.Params, &doc.EmbeddingModel, &createdAtStr); err != nil {
		return nil, err
	}

	// Parse created_at DATETIME string
	var err error
	doc.CreatedAt, err = time.Parse("2006-01-02 15:04:05", createdAtStr)
	if err != nil {
		// SQLite may hand back RFC3339 depending on the driver's column handling
		doc.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
	}
	return &doc, nil
}
