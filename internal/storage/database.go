package storage

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// Foreign keys are enabled on every pooled connection through the DSN.
func New(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			hash TEXT NOT NULL,
			params TEXT NOT NULL,
			embedding_model TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (hash, params, embedding_model)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_id);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			text TEXT NOT NULL,
			header_path TEXT NOT NULL,
			kinds TEXT NOT NULL,
			type TEXT NOT NULL,
			size INTEGER NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			embedding TEXT,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
			UNIQUE (document_id, chunk_index)
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
