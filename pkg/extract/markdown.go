package extract

import (
	"context"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts text from Markdown documents. Headings become sections
// and list items become items.
type Markdown struct {
	md       goldmark.Markdown
	maxBytes int64
}

// NewMarkdown creates a Markdown extractor. maxBytes <= 0 uses
// DefaultMaxBytes.
func NewMarkdown(maxBytes int64) *Markdown {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Markdown{md: goldmark.New(), maxBytes: maxBytes}
}

// Extract implements Extractor.
func (m *Markdown) Extract(ctx context.Context, name string, r io.Reader) (*Document, error) {
	src, err := readLimited(ctx, r, m.maxBytes)
	if err != nil {
		return nil, err
	}

	root := m.md.Parser().Parse(text.NewReader(src))

	var (
		lines    []string
		items    []string
		sections []string
	)
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			s := collapse(inlineText(node, src))
			sections = append(sections, s)
			lines = append(lines, "", s)
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			s := collapse(inlineText(node, src))
			items = append(items, s)
			lines = append(lines, "- "+s)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			lines = append(lines, inlineText(node, src))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines = append(lines, blockLines(node, src)...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	body := normalizeText(strings.Join(lines, "\n"))
	if body == "" {
		return nil, ErrEmptyDocument
	}

	meta := scanMetadata(body)
	meta.ContentType = "text/markdown"
	meta.Items = items
	meta.Sections = sections
	return &Document{Name: name, Text: body, Metadata: meta}, nil
}

// inlineText concatenates the text leaves below n, keeping line breaks.
// Nested blocks are separated by a space.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch leaf := c.(type) {
		case *ast.Text:
			b.Write(leaf.Segment.Value(src))
			if leaf.SoftLineBreak() || leaf.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(leaf.Value)
		default:
			if c != n && c.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func blockLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\n"))
	}
	return out
}
