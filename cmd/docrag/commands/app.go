package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"docrag/internal/chunking"
	"docrag/internal/config"
	"docrag/internal/contextutil"
	"docrag/internal/embedding"
	"docrag/internal/indexer"
	"docrag/internal/storage"
	"docrag/internal/vectorstore"
)

// app holds the components wired from configuration for one command run.
type app struct {
	pipeline *indexer.Pipeline
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	chunker, err := newChunker(cfg.Chunking, cfg.SegmentDictPath)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.New(cfg.Embedding.Options())
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	logger.Debug("Embedder ready", "provider", cfg.Embedding.Provider, "model", embedder.Model(), "dimension", embedder.Dimension())

	opts := indexer.Options{
		Collection: cfg.Qdrant.Collection,
		Workers:    cfg.Embedding.Workers,
	}

	if cfg.DBPath != "" {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening chunk cache: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrating chunk cache: %w", err)
		}
		opts.Cache = storage.NewSQLCache(db)
		logger.Debug("Chunk cache initialized", "path", cfg.DBPath)
	}

	if cfg.Qdrant.URL != "" {
		store, err := vectorstore.NewQdrantStore(cfg.Qdrant.URL)
		if err != nil {
			return nil, fmt.Errorf("creating Qdrant client: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		opts.VectorStore = store
		logger.Debug("Publishing vectors to Qdrant", "url", cfg.Qdrant.URL, "collection", cfg.Qdrant.Collection)
	}

	a.pipeline = indexer.NewPipeline(chunker, embedder, opts)
	return a, nil
}

// Close releases the cache database and Qdrant connection, last opened first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newChunker(params chunking.Params, dictPath string) (*chunking.Chunker, error) {
	segmenter, err := loadSegmenter(dictPath)
	if err != nil {
		return nil, err
	}
	chunker, err := chunking.NewChunker(params, segmenter)
	if err != nil {
		return nil, fmt.Errorf("creating chunker: %w", err)
	}
	return chunker, nil
}

// loadSegmenter returns nil when no dictionary is configured.
func loadSegmenter(path string) (chunking.Segmenter, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment dictionary: %w", err)
	}
	defer f.Close()

	seg, err := chunking.LoadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("loading segment dictionary %s: %w", path, err)
	}
	return seg, nil
}
