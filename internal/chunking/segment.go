package chunking

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Segmenter splits a run-together word (e.g. "machinelearningmodels") into its parts.
// Implementations return the input unchanged as a single segment when they cannot do better.
type Segmenter interface {
	Segment(word string) []string
}

// NoopSegmenter leaves every word intact.
type NoopSegmenter struct{}

// Segment returns word as its only segment.
func (NoopSegmenter) Segment(word string) []string {
	return []string{word}
}

// DictionarySegmenter segments words with a unigram language model using Viterbi search.
// Unknown substrings are scored 10/(total*10^len), which makes long unknown pieces expensive.
type DictionarySegmenter struct {
	counts map[string]float64
	total  float64
	maxLen int
}

// NewDictionarySegmenter builds a segmenter from word frequencies. Keys are lowercased.
func NewDictionarySegmenter(counts map[string]float64) *DictionarySegmenter {
	s := &DictionarySegmenter{
		counts: make(map[string]float64, len(counts)),
		maxLen: 1,
	}
	for word, count := range counts {
		if count <= 0 || word == "" {
			continue
		}
		w := strings.ToLower(word)
		s.counts[w] += count
		s.total += count
		if n := utf8.RuneCountInString(w); n > s.maxLen {
			s.maxLen = n
		}
	}
	return s
}

// LoadDictionary reads "word count" lines (space or tab separated) into a DictionarySegmenter.
// Blank lines and lines starting with '#' are ignored.
func LoadDictionary(r io.Reader) (*DictionarySegmenter, error) {
	counts := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"word count\", got %q", lineNo, line)
		}
		count, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid count %q: %w", lineNo, fields[1], err)
		}
		counts[fields[0]] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("dictionary is empty")
	}
	return NewDictionarySegmenter(counts), nil
}

// Segment returns the most probable split of word under the unigram model.
func (s *DictionarySegmenter) Segment(word string) []string {
	runes := []rune(word)
	n := len(runes)
	if n == 0 || s.total == 0 {
		return []string{word}
	}

	best := make([]float64, n+1)
	back := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
		for j := max(0, i-s.maxLen); j < i; j++ {
			score := best[j] + s.logProb(string(runes[j:i]))
			if score > best[i] {
				best[i] = score
				back[i] = j
			}
		}
	}

	var segments []string
	for i := n; i > 0; i = back[i] {
		segments = append(segments, string(runes[back[i]:i]))
	}
	for l, r := 0, len(segments)-1; l < r; l, r = l+1, r-1 {
		segments[l], segments[r] = segments[r], segments[l]
	}
	return segments
}

func (s *DictionarySegmenter) logProb(word string) float64 {
	if count, ok := s.counts[word]; ok {
		return math.Log(count / s.total)
	}
	return math.Log(10) - math.Log(s.total) - float64(utf8.RuneCountInString(word))*math.Log(10)
}
