package chunking

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

const (
	// Words longer than this are candidates for segmentation.
	segmentMinRunes    = 12
	formulaReplacement = "[Formula]"
)

var (
	imageMarkerRe   = regexp.MustCompile(`(?i)<!--\s*image\s*-->`)
	formulaMarkerRe = regexp.MustCompile(`(?i)<!--\s*formula-not-decoded\s*-->`)
	htmlCommentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	excessNewlineRe = regexp.MustCompile(`\n{4,}`)
	inlineSpaceRe   = regexp.MustCompile(`[ \t]+`)
	camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)
)

// normalize cleans converter output before classification. Line structure is preserved
// except for collapsing runs of 4+ newlines.
func normalize(raw string, seg Segmenter) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = norm.NFC.String(s)

	s = imageMarkerRe.ReplaceAllString(s, "")
	s = formulaMarkerRe.ReplaceAllString(s, formulaReplacement)
	s = htmlCommentRe.ReplaceAllString(s, "")

	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")

	s = excessNewlineRe.ReplaceAllString(s, "\n\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		indent, rest := splitIndent(line)
		lines[i] = indent + inlineSpaceRe.ReplaceAllString(rest, " ")
	}
	s = strings.Join(lines, "\n")

	s = camelBoundaryRe.ReplaceAllString(s, "${1} ${2}")

	if seg != nil {
		s = segmentLines(s, seg)
	}
	return s
}

func splitIndent(line string) (indent, rest string) {
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)], trimmed
}

// segmentLines runs the segmenter over prose lines. Structural lines and fenced code are left alone.
func segmentLines(s string, seg Segmenter) string {
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isFence(trimmed) {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" || isStructuralLine(trimmed) {
			continue
		}

		indent, _ := splitIndent(line)
		words := strings.Fields(line)
		for j, w := range words {
			words[j] = segmentWord(w, seg)
		}
		lines[i] = indent + strings.Join(words, " ")
	}
	return strings.Join(lines, "\n")
}

func isStructuralLine(trimmed string) bool {
	return isHeaderLine(trimmed) ||
		strings.HasPrefix(trimmed, "|") ||
		isListItem(trimmed) ||
		isQuoteLine(trimmed) ||
		tableSeparatorRe.MatchString(trimmed)
}

func segmentWord(word string, seg Segmenter) string {
	notWordRune := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
	core := strings.TrimFunc(word, notWordRune)
	if utf8.RuneCountInString(core) <= segmentMinRunes {
		return word
	}
	for _, r := range core {
		if !unicode.IsLetter(r) {
			return word
		}
	}
	if strings.ToUpper(core) == core {
		return word
	}

	parts := seg.Segment(strings.ToLower(core))
	if len(parts) < 2 {
		return word
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) <= 1 {
			return word
		}
	}

	start := strings.Index(word, core)
	return word[:start] + strings.Join(parts, " ") + word[start+len(core):]
}
