package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docrag/internal/contextutil"
)

const (
	// DefaultTopK is used when a request leaves TopK unset.
	DefaultTopK = 5

	debugTextLimit = 300
)

// Engine answers search requests against a built Index.
type Engine interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

// EngineOptions holds the defaults applied to requests.
type EngineOptions struct {
	DefaultTopK  int
	DefaultAlpha float64
}

type ragEngine struct {
	index *Index
	opts  EngineOptions
}

// NewEngine creates an engine over index. A zero DefaultTopK falls back to DefaultTopK.
func NewEngine(index *Index, opts EngineOptions) (Engine, error) {
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	if opts.DefaultAlpha < 0 || opts.DefaultAlpha > 1 {
		return nil, &ValidationError{Field: "alpha", Message: fmt.Sprintf("default must be between 0 and 1, got %v", opts.DefaultAlpha)}
	}
	return &ragEngine{index: index, opts: opts}, nil
}

// Search validates req, applies defaults, and ranks the index.
func (e *ragEngine) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	topK, alpha, err := e.resolve(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid search request", "error", err)
		return SearchResponse{}, err
	}

	logger.InfoContext(ctx, "search started",
		"query", req.Query,
		"top_k", topK,
		"alpha", alpha,
		"index_size", e.index.Len(),
	)

	hits, err := e.index.Search(ctx, req.Query, topK, alpha)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "error", err)
		return SearchResponse{}, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{
			Text:       h.Chunk.Text,
			HeaderPath: h.Chunk.HeaderPath,
			SourceID:   h.Chunk.SourceID,
			Type:       h.Chunk.Type,
			Score:      h.Score,
		}
		logger.DebugContext(ctx, "retrieved chunk",
			"rank", h.Rank,
			"position", h.Position,
			"score", h.Score,
			"distance", h.Distance,
			"bm25", h.Lexical,
			"header_path", h.Chunk.HeaderPath,
		)
	}

	resp := SearchResponse{Results: results}
	if req.Debug {
		resp.Debug = e.buildDebugInfo(hits, topK, alpha)
	}

	logger.InfoContext(ctx, "search completed",
		"results_count", len(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (e *ragEngine) resolve(req SearchRequest) (int, float64, error) {
	if strings.TrimSpace(req.Query) == "" && e.index.Len() > 0 {
		return 0, 0, &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	topK := req.TopK
	switch {
	case topK < 0:
		return 0, 0, &ValidationError{Field: "top_k", Message: fmt.Sprintf("must not be negative, got %d", topK)}
	case topK == 0:
		topK = e.opts.DefaultTopK
	}

	alpha := e.opts.DefaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if alpha < 0 || alpha > 1 {
		return 0, 0, &ValidationError{Field: "alpha", Message: fmt.Sprintf("must be between 0 and 1, got %v", alpha)}
	}
	return topK, alpha, nil
}

func (e *ragEngine) buildDebugInfo(hits []Hit, topK int, alpha float64) *DebugInfo {
	retrieved := make([]RetrievedChunk, len(hits))
	for i, h := range hits {
		text := []rune(h.Chunk.Text)
		if len(text) > debugTextLimit {
			text = append(text[:debugTextLimit], []rune("...")...)
		}
		retrieved[i] = RetrievedChunk{
			ChunkIndex:   h.Position,
			HeaderPath:   h.Chunk.HeaderPath,
			Distance:     h.Distance,
			ScoreLexical: h.Lexical,
			ScoreFinal:   h.Score,
			Text:         string(text),
			Rank:         h.Rank,
		}
	}
	return &DebugInfo{
		RetrievedChunks: retrieved,
		Alpha:           alpha,
		TopK:            topK,
		IndexSize:       e.index.Len(),
	}
}
