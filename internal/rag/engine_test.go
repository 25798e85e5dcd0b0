package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docrag/internal/chunking"
	"docrag/internal/embedding"
)

// rankingFixture builds an index where lexical and vector evidence disagree:
// "lexical match" holds every query term but sits far from the query vector,
// "vector match" shares no terms but sits on the query vector.
func rankingFixture(t *testing.T) *Index {
	t.Helper()
	query := "hybrid retrieval fusion"
	emb := &fakeEmbedder{dim: 2, vectors: map[string][]float32{
		query:                                  {1, 1},
		"hybrid retrieval fusion explained":    {-5, -5},
		"nearest neighbour on the query point": {1, 1},
		"filler about gardening":               {3, 3},
	}}
	chunks := textChunks(
		"hybrid retrieval fusion explained",
		"nearest neighbour on the query point",
		"filler about gardening",
	)
	idx, err := NewBuilder(emb, 2).Build(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return idx
}

func ptr(f float64) *float64 { return &f }

func TestEngine_RankingExtremes(t *testing.T) {
	engine, err := NewEngine(rankingFixture(t), EngineOptions{DefaultAlpha: DefaultAlpha})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ctx := context.Background()

	resp, err := engine.Search(ctx, SearchRequest{Query: "hybrid retrieval fusion", Alpha: ptr(1)})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Results[0].Text != "nearest neighbour on the query point" {
		t.Errorf("alpha=1 top result = %q, want the nearest vector", resp.Results[0].Text)
	}

	resp, err = engine.Search(ctx, SearchRequest{Query: "hybrid retrieval fusion", Alpha: ptr(0)})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Results[0].Text != "hybrid retrieval fusion explained" {
		t.Errorf("alpha=0 top result = %q, want the best BM25 match", resp.Results[0].Text)
	}
}

func TestEngine_ResultSize(t *testing.T) {
	engine, err := NewEngine(rankingFixture(t), EngineOptions{DefaultTopK: 2, DefaultAlpha: 0.5})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name string
		topK int
		want int
	}{
		{name: "default", topK: 0, want: 2},
		{name: "one", topK: 1, want: 1},
		{name: "more than corpus", topK: 10, want: 3},
		{name: "far more than corpus", topK: 1000, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := engine.Search(context.Background(), SearchRequest{Query: "retrieval", TopK: tt.topK})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(resp.Results) != tt.want {
				t.Errorf("Search() returned %d results, want %d", len(resp.Results), tt.want)
			}
		})
	}
}

func TestEngine_LargeCorpusResultSize(t *testing.T) {
	texts := make([]string, 80)
	for i := range texts {
		texts[i] = fmt.Sprintf("section %d covers retrieval topic %d", i, i)
	}
	idx, err := NewBuilder(embedding.NewHashEmbedder(32), 4).Build(context.Background(), textChunks(texts...))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine, err := NewEngine(idx, EngineOptions{DefaultAlpha: 0.5})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name string
		topK int
		want int
	}{
		{name: "above fifty", topK: 60, want: 60},
		{name: "above corpus", topK: 100, want: 80},
		{name: "exact corpus", topK: 80, want: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := engine.Search(context.Background(), SearchRequest{Query: "retrieval topic", TopK: tt.topK, Debug: true})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(resp.Results) != tt.want {
				t.Errorf("Search() returned %d results, want %d", len(resp.Results), tt.want)
			}
			if resp.Debug.TopK != tt.topK {
				t.Errorf("Debug.TopK = %d, want %d", resp.Debug.TopK, tt.topK)
			}
		})
	}
}

func TestEngine_EmptyIndex(t *testing.T) {
	idx, err := NewBuilder(&fakeEmbedder{dim: 2}, 1).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine, err := NewEngine(idx, EngineOptions{DefaultAlpha: 0.5})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	resp, err := engine.Search(context.Background(), SearchRequest{Query: "anything", Debug: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(resp.Results))
	}
	if resp.Debug == nil || resp.Debug.IndexSize != 0 {
		t.Errorf("Debug = %+v, want index size 0", resp.Debug)
	}

	// A blank query is not an error when there is nothing to search
	resp, err = engine.Search(context.Background(), SearchRequest{Query: "  "})
	if err != nil {
		t.Fatalf("Search() with blank query error = %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Search() returned %d results, want 0", len(resp.Results))
	}
}

func TestEngine_Validation(t *testing.T) {
	engine, err := NewEngine(rankingFixture(t), EngineOptions{DefaultAlpha: 0.5})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	tests := []struct {
		name      string
		req       SearchRequest
		wantField string
	}{
		{name: "empty query", req: SearchRequest{Query: ""}, wantField: "query"},
		{name: "blank query", req: SearchRequest{Query: "   "}, wantField: "query"},
		{name: "negative top k", req: SearchRequest{Query: "q", TopK: -1}, wantField: "top_k"},
		{name: "alpha too high", req: SearchRequest{Query: "q", Alpha: ptr(1.01)}, wantField: "alpha"},
		{name: "alpha negative", req: SearchRequest{Query: "q", Alpha: ptr(-0.5)}, wantField: "alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Search(context.Background(), tt.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Search() error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestNewEngine_Errors(t *testing.T) {
	if _, err := NewEngine(nil, EngineOptions{}); err == nil {
		t.Error("NewEngine(nil) expected error")
	}
	if _, err := NewEngine(rankingFixture(t), EngineOptions{DefaultAlpha: 2}); err == nil {
		t.Error("NewEngine() expected error for alpha out of range")
	}
}

func TestEngine_DebugInfo(t *testing.T) {
	long := strings.Repeat("retrieval ", 100)
	emb := &fakeEmbedder{dim: 2}
	idx, err := NewBuilder(emb, 1).Build(context.Background(), textChunks(long, "other text"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine, err := NewEngine(idx, EngineOptions{DefaultAlpha: 0.3})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	resp, err := engine.Search(context.Background(), SearchRequest{Query: "retrieval", TopK: 2, Debug: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	d := resp.Debug
	if d == nil {
		t.Fatal("Debug should be set when requested")
	}
	if d.Alpha != 0.3 || d.TopK != 2 || d.IndexSize != 2 {
		t.Errorf("Debug = %+v, want alpha 0.3, top_k 2, index_size 2", d)
	}
	if len(d.RetrievedChunks) != 2 {
		t.Fatalf("RetrievedChunks has %d entries, want 2", len(d.RetrievedChunks))
	}
	first := d.RetrievedChunks[0]
	if first.Rank != 1 || first.ChunkIndex != 0 {
		t.Errorf("first retrieved = rank %d index %d, want rank 1 index 0", first.Rank, first.ChunkIndex)
	}
	if !strings.HasSuffix(first.Text, "...") || len([]rune(first.Text)) != debugTextLimit+3 {
		t.Errorf("debug text should be truncated, got %d runes", len([]rune(first.Text)))
	}
	if first.ScoreFinal != resp.Results[0].Score {
		t.Errorf("ScoreFinal = %v, want %v", first.ScoreFinal, resp.Results[0].Score)
	}

	resp, err = engine.Search(context.Background(), SearchRequest{Query: "retrieval"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Debug != nil {
		t.Error("Debug should be nil unless requested")
	}
}

func TestEngine_EmbedderFailure(t *testing.T) {
	emb := &fakeEmbedder{dim: 2}
	idx, err := NewBuilder(emb, 1).Build(context.Background(), textChunks("some text"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	emb.failOn = "boom"

	engine, _ := NewEngine(idx, EngineOptions{DefaultAlpha: 0.5})
	_, err = engine.Search(context.Background(), SearchRequest{Query: "boom"})
	if err == nil {
		t.Fatal("Search() expected error when the query cannot be embedded")
	}
	if !strings.Contains(err.Error(), "failed to embed query") {
		t.Errorf("error = %v", err)
	}
}

func ExampleEngine() {
	emb := &fakeEmbedder{dim: 2}
	c, _ := chunking.NewChunker(chunking.DefaultParams(), nil)
	chunks := c.Chunk(context.Background(), "# Intro\n\nBM25 meets vectors.", "doc.md")

	idx, _ := NewBuilder(emb, 1).Build(context.Background(), chunks)
	engine, _ := NewEngine(idx, EngineOptions{DefaultAlpha: 0.5})
	resp, _ := engine.Search(context.Background(), SearchRequest{Query: "vectors"})

	for _, r := range resp.Results {
		fmt.Println(r.HeaderPath)
	}
	// Output: Intro
}
