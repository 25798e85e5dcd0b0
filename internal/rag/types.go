package rag

// SearchRequest represents a hybrid search query.
type SearchRequest struct {
	// Query is the natural-language query.
	Query string `json:"query"`
	// TopK is the number of results wanted. Zero uses the engine default.
	TopK int `json:"top_k,omitempty"`
	// Alpha weights vector evidence against lexical evidence. Nil uses the engine default.
	Alpha *float64 `json:"alpha,omitempty"`
	// Debug enables debug mode, returning per-signal scores.
	Debug bool `json:"debug,omitempty"`
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	Text       string  `json:"text"`
	HeaderPath string  `json:"header_path"`
	SourceID   string  `json:"source_id,omitempty"`
	Type       string  `json:"type"`
	Score      float64 `json:"score"`
}

// SearchResponse represents the response to a search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	// Debug contains debug information when debug mode is enabled.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains detailed retrieval information for debugging and evaluation.
type DebugInfo struct {
	// RetrievedChunks contains all returned chunks with their scores and ranks.
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
	// Alpha is the vector weight actually used.
	Alpha float64 `json:"alpha"`
	// TopK is the result count requested after defaults are applied.
	TopK int `json:"top_k"`
	// IndexSize is the number of chunks searched.
	IndexSize int `json:"index_size"`
}

// RetrievedChunk represents a retrieved chunk with scoring information.
type RetrievedChunk struct {
	// ChunkIndex is the chunk's position in the index.
	ChunkIndex int `json:"chunk_index"`
	// HeaderPath is the heading hierarchy path (e.g., "Overview > Details").
	HeaderPath string `json:"header_path"`
	// Distance is the squared L2 distance between query and chunk vectors.
	Distance float64 `json:"distance"`
	// ScoreLexical is the BM25 score.
	ScoreLexical float64 `json:"score_lexical"`
	// ScoreFinal is the fused score.
	ScoreFinal float64 `json:"score_final"`
	// Text is the chunk text, truncated for display.
	Text string `json:"text"`
	// Rank is the 1-based rank.
	Rank int `json:"rank"`
}
