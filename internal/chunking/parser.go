package chunking

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ParseResult holds the normalized text and the blocks classified from it.
type ParseResult struct {
	Blocks []Block
	Text   string
}

// Parser turns converter output into an ordered list of structural blocks.
type Parser struct {
	md        goldmark.Markdown
	segmenter Segmenter
}

// NewParser creates a parser. A nil segmenter disables word segmentation.
func NewParser(segmenter Segmenter) *Parser {
	if segmenter == nil {
		segmenter = NoopSegmenter{}
	}
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
		segmenter: segmenter,
	}
}

// Parse normalizes raw and splits it into blocks in document order.
// Blank lines separate blocks and never start one.
func (p *Parser) Parse(raw string) ParseResult {
	normalized := normalize(raw, p.segmenter)
	lines := strings.Split(normalized, "\n")

	var blocks []Block
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}

		rule := matchRule(trimmed)
		end := rule.span(lines, i)
		if end <= i {
			end = i + 1
		}

		block := Block{
			Kind:      rule.kind,
			Content:   strings.TrimSpace(strings.Join(lines[i:end], "\n")),
			LineStart: i,
			LineEnd:   end,
		}
		if rule.kind == KindHeader {
			block.HeaderLevel = len(headerRe.FindStringSubmatch(trimmed)[1])
			block.Title = p.headerTitle(trimmed)
		}
		blocks = append(blocks, block)
		i = end
	}

	return ParseResult{Blocks: blocks, Text: normalized}
}

// headerTitle renders a header line through goldmark so inline markup
// (emphasis, code spans, links) is reduced to its text.
func (p *Parser) headerTitle(line string) string {
	content := []byte(line)
	doc := p.md.Parser().Parse(text.NewReader(content))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			title = extractTextFromNode(heading, content)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if title == "" {
		title = strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	return title
}

func extractTextFromNode(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
