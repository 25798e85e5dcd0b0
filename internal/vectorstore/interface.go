package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docrag/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// VectorStore is an external mirror of chunk vectors. Ranking never reads from it.
type VectorStore interface {
	// EnsureCollection creates the collection or checks its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
