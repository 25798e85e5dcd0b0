package rag

import (
	"math"

	"docrag/internal/textutil"
)

// BM25Okapi constants.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
	// bm25Epsilon scales the mean idf that replaces negative idf values
	// (terms present in more than half of the corpus).
	bm25Epsilon = 0.25
)

// LexicalIndex scores a fixed corpus against queries with BM25Okapi.
// It is immutable after construction and safe for concurrent use.
type LexicalIndex struct {
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

// NewLexicalIndex tokenizes texts and precomputes term statistics.
// Scores returned later are indexed by position in texts.
func NewLexicalIndex(texts []string) *LexicalIndex {
	idx := &LexicalIndex{
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	total := 0
	for i, text := range texts {
		tokens := textutil.Tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			docFreq[tok]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgDocLen = float64(total) / float64(len(texts))
	}

	n := float64(len(texts))
	var idfSum float64
	var negative []string
	for tok, df := range docFreq {
		v := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		idx.idf[tok] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * idfSum / float64(len(docFreq))
		for _, tok := range negative {
			idx.idf[tok] = floor
		}
	}
	return idx
}

// Len returns the number of documents in the corpus.
func (l *LexicalIndex) Len() int {
	return len(l.docLens)
}

// Scores returns the BM25 score of every document for query.
// A token repeated in the query contributes once per occurrence.
func (l *LexicalIndex) Scores(query string) []float64 {
	scores := make([]float64, len(l.docLens))
	if len(scores) == 0 {
		return scores
	}

	avg := l.avgDocLen
	if avg == 0 {
		avg = 1
	}
	for _, tok := range textutil.Tokenize(query) {
		idf, ok := l.idf[tok]
		if !ok {
			continue
		}
		for i, freqs := range l.termFreqs {
			tf := float64(freqs[tok])
			if tf == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(l.docLens[i])/avg)
			scores[i] += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
	}
	return scores
}
