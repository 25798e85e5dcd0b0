package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceEndRe = regexp.MustCompile(`[.!?]+\s+`)
	lineBreakRe   = regexp.MustCompile(`\n+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// forceSplit replaces every chunk larger than forceSplitFactor*maxSize with sub-chunks
// of at most maxSize runes. Other chunks pass through untouched.
func forceSplit(chunks []Chunk, maxSize int) []Chunk {
	limit := forceSplitFactor * float64(maxSize)
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if float64(c.Size) <= limit {
			out = append(out, c)
			continue
		}
		for _, text := range splitText(c.Text, maxSize) {
			sub := c
			sub.Text = text
			sub.Size = utf8.RuneCountInString(text)
			sub.Kinds = append([]BlockKind(nil), c.Kinds...)
			sub.Note = NoteForceSplit
			out = append(out, sub)
		}
	}
	return out
}

// splitText cuts text at sentence ends, falling back to line breaks, then whitespace,
// then fixed rune offsets for pieces that are still too long, and packs the pieces
// greedily into parts of at most maxSize runes. Concatenating the pieces reproduces text.
func splitText(text string, maxSize int) []string {
	pieces := cutAfter(text, sentenceEndRe)
	pieces = refine(pieces, maxSize, func(s string) []string { return cutAfter(s, lineBreakRe) })
	pieces = refine(pieces, maxSize, func(s string) []string { return cutAfter(s, whitespaceRe) })
	pieces = refine(pieces, maxSize, func(s string) []string { return cutRunes(s, maxSize) })
	return pack(pieces, maxSize)
}

// cutAfter splits s after every match of re, keeping the match with the preceding piece.
func cutAfter(s string, re *regexp.Regexp) []string {
	var pieces []string
	prev := 0
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[1] > prev {
			pieces = append(pieces, s[prev:loc[1]])
			prev = loc[1]
		}
	}
	if prev < len(s) {
		pieces = append(pieces, s[prev:])
	}
	return pieces
}

func cutRunes(s string, n int) []string {
	runes := []rune(s)
	var pieces []string
	for start := 0; start < len(runes); start += n {
		end := min(start+n, len(runes))
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

func refine(pieces []string, maxSize int, cut func(string) []string) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if utf8.RuneCountInString(p) <= maxSize {
			out = append(out, p)
			continue
		}
		out = append(out, cut(p)...)
	}
	return out
}

func pack(pieces []string, maxSize int) []string {
	var (
		parts   []string
		acc     strings.Builder
		accSize int
	)
	emit := func() {
		if text := strings.TrimSpace(acc.String()); text != "" {
			parts = append(parts, text)
		}
		acc.Reset()
		accSize = 0
	}

	for _, p := range pieces {
		size := utf8.RuneCountInString(p)
		if accSize > 0 && accSize+size > maxSize {
			emit()
		}
		acc.WriteString(p)
		accSize += size
	}
	emit()
	return parts
}
