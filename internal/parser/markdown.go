package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Block kinds (code,
// list items, quotes, tables) are preserved as doctree blocks.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	out := newOutline()
	counts := map[string]int{}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		top := out.current()

		switch node := n.(type) {
		case *ast.Heading:
			level := node.Level
			title := inlineText(node, src, false)
			counts["headings"]++
			if level == 1 && tree.Metadata.Title == "" {
				tree.Metadata.Title = title
			}

			out.heading(level, title, lineOf(node, src))

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			counts["code_blocks"]++
			top.AppendBlock(doctree.BlockCode, strings.TrimRight(linesText(n, src), "\n"))

		case *ast.List:
			appendList(top, node, src)

		case *ast.Blockquote:
			top.AppendBlock(doctree.BlockQuote, blockText(node, src))

		case *east.Table:
			counts["tables"]++
			top.AppendBlock(doctree.BlockTable, tableText(node, src))

		case *ast.ThematicBreak:
			// Section rules carry no text.

		case *ast.HTMLBlock:
			top.AppendBlock(doctree.BlockText, strings.TrimSpace(linesText(n, src)))

		default:
			top.AppendBlock(doctree.BlockText, blockText(n, src))
		}
	}

	tree.Children = out.sections()

	tree.Stats = map[string]any{
		"headings":    counts["headings"],
		"code_blocks": counts["code_blocks"],
		"tables":      counts["tables"],
	}
	return tree, nil
}

// appendList adds one list-item block per item, flattening nested lists.
func appendList(dst *doctree.DocNode, list *ast.List, src []byte) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var nested []*ast.List
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if l, ok := c.(*ast.List); ok {
				nested = append(nested, l)
				continue
			}
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		dst.AppendBlock(doctree.BlockListItem, strings.Join(parts, " "))
		for _, l := range nested {
			appendList(dst, l, src)
		}
	}
}

// blockText renders a block's inline content, recursing into container blocks.
func blockText(n ast.Node, src []byte) string {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return inlineText(n, src, true)
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return strings.TrimSpace(linesText(n, src))
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// inlineText flattens inline children. With markup set, emphasis, code spans,
// links and images keep a light Markdown form.
func inlineText(n ast.Node, src []byte, markup bool) string {
	var b strings.Builder
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				b.Write(node.Segment.Value(src))
				if node.HardLineBreak() || node.SoftLineBreak() {
					b.WriteByte('\n')
				}
			case *ast.String:
				b.Write(node.Value)
			case *ast.CodeSpan:
				if markup {
					b.WriteByte('`')
				}
				walk(node)
				if markup {
					b.WriteByte('`')
				}
			case *ast.Emphasis:
				mark := strings.Repeat("*", node.Level)
				if markup {
					b.WriteString(mark)
				}
				walk(node)
				if markup {
					b.WriteString(mark)
				}
			case *ast.Link:
				if markup {
					b.WriteByte('[')
				}
				walk(node)
				if markup {
					b.WriteString("](" + string(node.Destination) + ")")
				}
			case *ast.Image:
				if markup {
					b.WriteString("![")
					walk(node)
					b.WriteString("](" + string(node.Destination) + ")")
				}
			case *ast.AutoLink:
				b.Write(node.URL(src))
			case *ast.RawHTML:
				// Inline HTML tags are dropped.
			default:
				walk(node)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// linesText concatenates a block's raw source lines.
func linesText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(src))
	}
	return b.String()
}

// tableText renders a GFM table as pipe-delimited rows.
func tableText(t *east.Table, src []byte) string {
	var rows []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, src, false))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
	}
	return strings.Join(rows, "\n")
}

// lineOf returns the 1-based source line of a block node, 0 if unknown.
func lineOf(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	return strings.Count(string(src[:lines.At(0).Start]), "\n") + 1
}
