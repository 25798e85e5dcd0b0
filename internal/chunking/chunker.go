package chunking

import (
	"context"
	"os"
	"strings"

	"docrag/internal/contextutil"
)

// Chunker runs the parser and assembler over a whole document.
// It never returns an error: unusable input becomes a single sentinel chunk with a Note.
type Chunker struct {
	parser    *Parser
	assembler *Assembler
}

// NewChunker creates a chunker. A nil segmenter disables word segmentation.
func NewChunker(params Params, segmenter Segmenter) (*Chunker, error) {
	assembler, err := NewAssembler(params)
	if err != nil {
		return nil, err
	}
	return &Chunker{
		parser:    NewParser(segmenter),
		assembler: assembler,
	}, nil
}

// Params returns the chunk size parameters in use.
func (c *Chunker) Params() Params {
	return c.assembler.Params()
}

// Chunk splits document text into chunks tagged with sourceID.
func (c *Chunker) Chunk(ctx context.Context, text, sourceID string) []Chunk {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(text) == "" {
		logger.WarnContext(ctx, "document is empty", "source", sourceID)
		return []Chunk{sentinelChunk(sourceID, NoteEmptyFile)}
	}

	result := c.parser.Parse(text)
	chunks := c.assembler.Assemble(result.Blocks, sourceID)

	logger.DebugContext(ctx, "chunked document",
		"source", sourceID,
		"blocks", len(result.Blocks),
		"chunks", len(chunks),
	)
	return chunks
}

// ChunkFile reads path and chunks its contents, using the path as source ID.
func (c *Chunker) ChunkFile(ctx context.Context, path string) []Chunk {
	content, err := os.ReadFile(path)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to read document", "path", path, "error", err)
		return []Chunk{sentinelChunk(path, noteErrorPrefix+err.Error())}
	}
	return c.Chunk(ctx, string(content), path)
}
