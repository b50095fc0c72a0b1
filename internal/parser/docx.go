package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles open sections, list styles
// become list-item blocks and the rest are text blocks.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docstruct-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".docx"),
	}

	out := newOutline()
	var paragraphs, headings, listItems int
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paragraphs++

		style := docxStyle(para)
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		switch {
		case strings.EqualFold(style, "Title"):
			if tree.Metadata.Title == "" {
				tree.Metadata.Title = text
				tree.Title = text
			}
		case docxHeadingLevel(style) > 0:
			headings++
			out.heading(docxHeadingLevel(style), text, paragraphs)
		case docxIsList(style):
			listItems++
			out.current().AppendBlock(doctree.BlockListItem, text)
		case strings.EqualFold(style, "Quote") || strings.EqualFold(style, "IntenseQuote"):
			out.current().AppendBlock(doctree.BlockQuote, text)
		default:
			out.current().AppendBlock(doctree.BlockText, text)
		}
	}

	tree.Children = out.sections()
	tree.Stats = map[string]any{
		"paragraphs": paragraphs,
		"headings":   headings,
		"list_items": listItems,
	}
	return tree, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel parses "Heading1" and "heading 1" style names.
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if !strings.HasPrefix(s, "heading") || len(s) != len("heading")+1 {
		return 0
	}
	level := int(s[len(s)-1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxIsList(style string) bool {
	s := strings.ToLower(style)
	return strings.HasPrefix(s, "list") || strings.Contains(s, "bullet")
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
