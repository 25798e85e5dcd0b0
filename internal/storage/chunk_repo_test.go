package storage

import (
	"context"
	"testing"
)

func insertTestDocument(t *testing.T, repo *DocumentRepo, sourceID string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{SourceID: sourceID, Hash: "hash-" + sourceID, Params: "p", EmbeddingModel: "m"}
	if err := repo.Insert(context.Background(), doc); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	return doc
}

func TestChunkRepo_Insert(t *testing.T) {
	db := newTestDB(t)
	doc := insertTestDocument(t, NewDocumentRepo(db), "a.md")
	repo := NewChunkRepo(db)

	tests := []struct {
		name    string
		chunk   *ChunkRecord
		wantErr bool
	}{
		{
			name: "full chunk",
			chunk: &ChunkRecord{
				ID:         "chunk-1",
				DocumentID: doc.ID,
				ChunkIndex: 0,
				Text:       "Some text",
				HeaderPath: "Intro > Setup",
				Kinds:      []string{"header", "paragraph"},
				Type:       "mixed",
				Size:       9,
				Embedding:  []float32{0.25, -1},
			},
		},
		{
			name: "sentinel without embedding",
			chunk: &ChunkRecord{
				ID:         "chunk-2",
				DocumentID: doc.ID,
				ChunkIndex: 0,
				HeaderPath: "Root",
				Kinds:      []string{},
				Note:       "empty file",
			},
		},
		{
			name: "unknown document",
			chunk: &ChunkRecord{
				ID:         "chunk-3",
				DocumentID: "missing",
				Kinds:      []string{},
			},
			wantErr: true, // foreign key
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean up
			_, _ = db.Exec("DELETE FROM chunks")

			err := repo.Insert(context.Background(), tt.chunk)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Insert() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Insert() unexpected error: %v", err)
			}
		})
	}
}

func TestChunkRepo_ListByDocument(t *testing.T) {
	db := newTestDB(t)
	doc := insertTestDocument(t, NewDocumentRepo(db), "a.md")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	// Insert out of order to check ordering by chunk_index
	records := []*ChunkRecord{
		{ID: "c-2", DocumentID: doc.ID, ChunkIndex: 2, Text: "third", HeaderPath: "B", Kinds: []string{"code"}, Type: "code", Size: 5},
		{ID: "c-0", DocumentID: doc.ID, ChunkIndex: 0, Text: "first", HeaderPath: "Root", Kinds: []string{"paragraph"}, Type: "paragraph", Size: 5, Embedding: []float32{1, 2, 3}},
		{ID: "c-1", DocumentID: doc.ID, ChunkIndex: 1, Text: "second", HeaderPath: "A", Kinds: []string{"list", "table"}, Type: "mixed", Size: 6, Note: "force_split_large"},
	}
	for _, r := range records {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	got, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListByDocument() returned %d chunks, want 3", len(got))
	}
	for i, want := range []string{"c-0", "c-1", "c-2"} {
		if got[i].ID != want {
			t.Errorf("ListByDocument()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
	if e := got[0].Embedding; len(e) != 3 || e[2] != 3 {
		t.Errorf("embedding = %v, want [1 2 3]", e)
	}
	if got[1].Embedding != nil {
		t.Errorf("embedding = %v, want nil", got[1].Embedding)
	}
	if k := got[1].Kinds; len(k) != 2 || k[0] != "list" || k[1] != "table" {
		t.Errorf("kinds = %v, want [list table]", k)
	}
	if got[1].Note != "force_split_large" {
		t.Errorf("note = %q", got[1].Note)
	}

	ids, err := repo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != "c-0" || ids[2] != "c-2" {
		t.Errorf("ListIDsByDocument() = %v, want ordered by index", ids)
	}
}

func TestChunkRepo_DeleteByDocument(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	keep := insertTestDocument(t, docs, "keep.md")
	drop := insertTestDocument(t, docs, "drop.md")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	for i, docID := range []string{keep.ID, drop.ID, drop.ID} {
		rec := &ChunkRecord{ID: string(rune('a' + i)), DocumentID: docID, ChunkIndex: i, Text: "t", Kinds: []string{}}
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	if err := repo.DeleteByDocument(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}

	ids, err := repo.ListIDsByDocument(ctx, drop.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("DeleteByDocument() should delete all chunks, got %d remaining", len(ids))
	}
	ids, _ = repo.ListIDsByDocument(ctx, keep.ID)
	if len(ids) != 1 {
		t.Errorf("other document lost chunks: %v", ids)
	}

	if err := repo.DeleteByDocument(ctx, "missing"); err != nil {
		t.Errorf("DeleteByDocument() of missing document error = %v, want nil", err)
	}
}

func TestChunkRepo_CascadeOnDocumentDelete(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	doc := insertTestDocument(t, docs, "a.md")
	repo := NewChunkRepo(db)
	ctx := context.Background()

	if err := repo.Insert(ctx, &ChunkRecord{ID: "c", DocumentID: doc.ID, Text: "t", Kinds: []string{}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := docs.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 0 {
		t.Errorf("chunks left after document delete = %d, want 0", count)
	}
}
