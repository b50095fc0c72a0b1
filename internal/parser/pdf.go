package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available. Each page becomes a section.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docstruct-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".pdf"),
	}

	pages, pageErrs, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		pages = splitPages(text)
		pageErrs = nil
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	tree.Errors = pageErrs

	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		node := &doctree.DocNode{
			Title: fmt.Sprintf("Page %d", i+1),
			Page:  i + 1,
		}
		node.AppendBlock(doctree.BlockText, page)
		tree.Children = append(tree.Children, node)
	}

	tree.Stats = map[string]any{
		"pages":       len(pages),
		"empty_pages": len(pages) - len(tree.Children),
	}
	return tree, nil
}

// extractPDFPages returns one entry per page. Pages that fail to decode are
// left empty and reported in the error list.
func extractPDFPages(path string) ([]string, []string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	var errs []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			errs = append(errs, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		pages[i-1] = text
	}
	return pages, errs, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// splitPages splits pdftotext output on form feeds, dropping the empty tail.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}
