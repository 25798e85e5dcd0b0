package chunking

import (
	"regexp"
	"strings"
)

var (
	headerRe         = regexp.MustCompile(`^(#{1,6})\s+\S`)
	listItemRe       = regexp.MustCompile(`^([\*\-\+]\s+|\d+\.\s+)`)
	tableSeparatorRe = regexp.MustCompile(`^\|[\-\:\|\s]+\|\s*$`)
)

// blockRule classifies the block starting at a line. starts sees the trimmed line;
// span returns the exclusive end line of the block beginning at start.
type blockRule struct {
	kind   BlockKind
	starts func(trimmed string) bool
	span   func(lines []string, start int) int
}

// structuralRules are tried in order; the first whose start matches wins.
// Anything else is a paragraph.
var structuralRules = []blockRule{
	{kind: KindHeader, starts: isHeaderLine, span: singleLine},
	{kind: KindCode, starts: isFence, span: fenceSpan},
	{kind: KindTable, starts: isTableRow, span: tableSpan},
	{kind: KindList, starts: isListItem, span: listSpan},
	{kind: KindQuote, starts: isQuoteLine, span: quoteSpan},
}

var paragraphRule = blockRule{
	kind:   KindParagraph,
	starts: func(string) bool { return true },
	span:   paragraphSpan,
}

func matchRule(trimmed string) blockRule {
	if r, ok := matchStructural(trimmed); ok {
		return r
	}
	return paragraphRule
}

func matchStructural(trimmed string) (blockRule, bool) {
	for _, r := range structuralRules {
		if r.starts(trimmed) {
			return r, true
		}
	}
	return blockRule{}, false
}

func isHeaderLine(trimmed string) bool {
	return headerRe.MatchString(trimmed)
}

func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```")
}

// isTableRow also accepts a lone "|", which opens a one-row table.
func isTableRow(trimmed string) bool {
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

func isListItem(trimmed string) bool {
	return listItemRe.MatchString(trimmed)
}

func isQuoteLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, ">")
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "  ")
}

func singleLine(_ []string, start int) int {
	return start + 1
}

// fenceSpan includes the closing fence. An unclosed fence runs to the end of input.
func fenceSpan(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if isFence(strings.TrimSpace(lines[i])) {
			return i + 1
		}
	}
	return len(lines)
}

func tableSpan(lines []string, start int) int {
	i := start + 1
	if i < len(lines) && tableSeparatorRe.MatchString(strings.TrimSpace(lines[i])) {
		i++
	}
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "|") || tableSeparatorRe.MatchString(trimmed) {
			break
		}
		i++
	}
	return i
}

func listSpan(lines []string, start int) int {
	i := start + 1
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		if !isListItem(trimmed) && !isIndented(lines[i]) {
			break
		}
		i++
	}
	return i
}

func quoteSpan(lines []string, start int) int {
	i := start + 1
	for i < len(lines) && isQuoteLine(strings.TrimSpace(lines[i])) {
		i++
	}
	return i
}

// paragraphSpan always takes its first line, so a line that merely looks structural
// (e.g. "#tag") cannot stall the scan.
func paragraphSpan(lines []string, start int) int {
	i := start + 1
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			break
		}
		if _, ok := matchStructural(trimmed); ok {
			break
		}
		i++
	}
	return i
}
