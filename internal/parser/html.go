package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		tree.Title = title
		tree.Metadata.Title = title
	}
	if lang := findAttr(doc, "html", "lang"); lang != "" {
		tree.Metadata.Language = lang
	}

	out := newOutline()
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				out.heading(level, textContent(n), 0)
				return // Don't recurse into heading children (already extracted text).
			}
			if skipElement(n.Data) {
				return
			}
			if kind, ok := htmlBlockKind(n.Data); ok {
				out.current().AppendBlock(kind, htmlBlockText(n, kind))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	tree.Children = out.sections()
	return tree, nil
}

// skipElement reports elements that carry no document content.
func skipElement(tag string) bool {
	switch tag {
	case "script", "style", "nav", "footer", "header", "noscript", "svg":
		return true
	}
	return false
}

// htmlBlockKind maps block-level tags to doctree kinds.
func htmlBlockKind(tag string) (doctree.BlockKind, bool) {
	switch tag {
	case "p":
		return doctree.BlockText, true
	case "li", "dt", "dd":
		return doctree.BlockListItem, true
	case "pre":
		return doctree.BlockCode, true
	case "blockquote":
		return doctree.BlockQuote, true
	case "table":
		return doctree.BlockTable, true
	}
	return "", false
}

// htmlBlockText renders a block element. Code keeps its whitespace, tables
// become pipe rows, everything else is inline text with light markup.
func htmlBlockText(n *html.Node, kind doctree.BlockKind) string {
	switch kind {
	case doctree.BlockCode:
		return strings.Trim(rawText(n), "\n")
	case doctree.BlockTable:
		return htmlTableText(n)
	}
	return inlineHTML(n)
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// inlineHTML flattens n to text, keeping emphasis, code, links and images
// as Markdown-style markup and collapsing whitespace.
func inlineHTML(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case c.Type != html.ElementNode:
			case skipElement(c.Data):
			case c.Data == "br":
				b.WriteByte('\n')
			case c.Data == "strong" || c.Data == "b":
				b.WriteString("**")
				walk(c)
				b.WriteString("**")
			case c.Data == "em" || c.Data == "i":
				b.WriteString("*")
				walk(c)
				b.WriteString("*")
			case c.Data == "code":
				b.WriteString("`")
				walk(c)
				b.WriteString("`")
			case c.Data == "a" && attr(c, "href") != "":
				b.WriteString("[")
				walk(c)
				b.WriteString("](" + attr(c, "href") + ")")
			case c.Data == "img":
				b.WriteString("![" + attr(c, "alt") + "](" + attr(c, "src") + ")")
			default:
				walk(c)
				if _, block := htmlBlockKind(c.Data); block {
					b.WriteByte(' ')
				}
			}
		}
	}
	walk(n)
	return collapseSpaces(b.String())
}

// collapseSpaces squeezes runs of spaces and tabs but keeps line breaks.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func htmlTableText(table *html.Node) string {
	var rows []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				walk(c)
				continue
			}
			var cells []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					cells = append(cells, inlineHTML(cell))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
			}
		}
	}
	walk(table)
	return strings.Join(rows, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// rawText concatenates text nodes without touching whitespace.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	return findElement(n, "body")
}

func findAttr(n *html.Node, tag, key string) string {
	if el := findElement(n, tag); el != nil {
		return attr(el, key)
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if el := findElement(c, tag); el != nil {
			return el
		}
	}
	return nil
}
