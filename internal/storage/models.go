package storage

import "time"

// DocumentRecord identifies one chunked version of a source document.
type DocumentRecord struct {
	ID             string // UUID
	SourceID       string // Path or caller-supplied identifier
	Hash           string // SHA256 hex string of raw content
	Params         string // Chunking parameters, see chunking.Params.String
	EmbeddingModel string
	CreatedAt      time.Time
}

// ChunkRecord is a chunk persisted for a document, including its embedding.
type ChunkRecord struct {
	ID         string // UUID (same as Qdrant point ID)
	DocumentID string // UUID (foreign key to documents.id)
	ChunkIndex int    // Position within the document (starts at 0)
	Text       string
	HeaderPath string // Format: "Heading1 > Heading2"
	Kinds      []string
	Type       string
	Size       int
	Note       string
	Embedding  []float32
}

// CacheKey is the identity under which a chunk list is cached.
// Any change to content, chunking parameters or embedding model misses the cache.
type CacheKey struct {
	Hash           string
	Params         string
	EmbeddingModel string
}
