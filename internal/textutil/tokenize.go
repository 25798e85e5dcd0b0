package textutil

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and returns its maximal runs of letters and digits.
// No stopwords are removed; callers that weight terms do so themselves.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}
