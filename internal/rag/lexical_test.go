package rag

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLexicalIndex_Scores(t *testing.T) {
	idx := NewLexicalIndex([]string{"apple banana", "apple cherry", "durian"})

	avgDocLen := 5.0 / 3.0
	idfRare := math.Log(3-1+0.5) - math.Log(1+0.5)
	wantBanana := idfRare * 1 * (bm25K1 + 1) / (1 + bm25K1*(1-bm25B+bm25B*2/avgDocLen))

	scores := idx.Scores("banana")
	if len(scores) != 3 {
		t.Fatalf("Scores() returned %d scores, want 3", len(scores))
	}
	if !almostEqual(scores[0], wantBanana) {
		t.Errorf("Scores(banana)[0] = %v, want %v", scores[0], wantBanana)
	}
	if scores[1] != 0 || scores[2] != 0 {
		t.Errorf("Scores(banana) = %v, want only the first document to score", scores)
	}
}

func TestLexicalIndex_NegativeIDFFloor(t *testing.T) {
	idx := NewLexicalIndex([]string{"apple banana", "apple cherry", "durian"})

	// "apple" is in 2 of 3 documents, so its raw idf is negative and gets floored
	// to epsilon times the mean idf.
	idfRare := math.Log(2.5) - math.Log(1.5)
	idfApple := math.Log(1.5) - math.Log(2.5)
	floor := bm25Epsilon * (3*idfRare + idfApple) / 4

	if !almostEqual(idx.idf["apple"], floor) {
		t.Errorf("idf[apple] = %v, want %v", idx.idf["apple"], floor)
	}
	scores := idx.Scores("apple")
	if scores[0] <= 0 || !almostEqual(scores[0], scores[1]) {
		t.Errorf("Scores(apple) = %v, want equal positive scores for the first two documents", scores)
	}
}

func TestLexicalIndex_RepeatedQueryTokens(t *testing.T) {
	idx := NewLexicalIndex([]string{"apple banana", "cherry"})
	once := idx.Scores("banana")
	twice := idx.Scores("banana Banana")
	if !almostEqual(twice[0], 2*once[0]) {
		t.Errorf("repeated token score = %v, want %v", twice[0], 2*once[0])
	}
}

func TestLexicalIndex_LengthNormalization(t *testing.T) {
	idx := NewLexicalIndex([]string{
		"retrieval",
		"retrieval padding padding padding padding padding",
		"unrelated",
	})
	scores := idx.Scores("retrieval")
	if scores[0] <= scores[1] {
		t.Errorf("shorter document should score higher: %v", scores)
	}
}

func TestLexicalIndex_EdgeCases(t *testing.T) {
	empty := NewLexicalIndex(nil)
	if got := empty.Scores("anything"); len(got) != 0 {
		t.Errorf("empty corpus Scores() = %v, want empty", got)
	}
	if empty.Len() != 0 {
		t.Errorf("Len() = %d, want 0", empty.Len())
	}

	idx := NewLexicalIndex([]string{"alpha beta", "", "?!"})
	for _, q := range []string{"", "gamma", "..."} {
		for i, s := range idx.Scores(q) {
			if s != 0 {
				t.Errorf("Scores(%q)[%d] = %v, want 0", q, i, s)
			}
		}
	}
}
