package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/taylorskalyo/goreader/epub"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// EPUBParser handles .epub files. Each spine item becomes one chapter,
// titled from the NCX table of contents when it has an entry.
type EPUBParser struct{}

const epubBlockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,table,dt,dd"

func (p *EPUBParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// goreader opens archives by path.
	tmp, err := os.CreateTemp("", "docstruct-epub-*.epub")
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

	rc, err := epub.OpenReader(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".epub"),
		Metadata: doctree.Metadata{
			Title:      strings.TrimSpace(book.Metadata.Title),
			Author:     strings.TrimSpace(book.Metadata.Creator),
			Language:   strings.TrimSpace(book.Metadata.Language),
			Publisher:  strings.TrimSpace(book.Metadata.Publisher),
			Identifier: strings.TrimSpace(book.Metadata.Identifier),
		},
	}
	if tree.Metadata.Title != "" {
		tree.Title = tree.Metadata.Title
	}

	tocByHref, err := epubTOC(tmpPath, book)
	if err != nil {
		tree.Errors = append(tree.Errors, fmt.Sprintf("toc: %v", err))
	}

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			tree.Errors = append(tree.Errors, fmt.Sprintf("spine item %d: missing manifest entry", i+1))
			continue
		}
		node, err := epubChapter(ref.Item)
		if err != nil {
			tree.Errors = append(tree.Errors, fmt.Sprintf("spine item %d (%s): %v", i+1, ref.Item.HREF, err))
			continue
		}
		if node.Text == "" {
			continue
		}
		if t := tocTitle(tocByHref, ref.Item.HREF); t != "" {
			node.Title = t
		}
		if node.Title == "" {
			node.Title = fmt.Sprintf("Section %d", i+1)
		}
		node.Page = i + 1
		tree.Children = append(tree.Children, node)
	}

	tree.Stats = map[string]any{
		"spine_items":    len(book.Spine.Itemrefs),
		"manifest_items": len(book.Manifest.Items),
		"toc_entries":    len(tocByHref),
	}
	return tree, nil
}

// epubChapter renders one XHTML spine item. The first heading becomes the
// node title; later headings are kept as heading blocks.
func epubChapter(item *epub.Item) (*doctree.DocNode, error) {
	f, err := item.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}
	doc.Find("script,style,nav").Remove()

	node := &doctree.DocNode{}
	doc.Find(epubBlockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are rendered by their outermost ancestor.
		if s.ParentsFiltered(epubBlockSelector).Length() > 0 {
			return
		}
		n := s.Nodes[0]
		if headingLevel(n.Data) > 0 {
			title := textContent(n)
			if node.Title == "" && node.Text == "" {
				node.Title = title
				return
			}
			node.AppendBlock(doctree.BlockHeading, title)
			return
		}
		kind, _ := htmlBlockKind(n.Data)
		node.AppendBlock(kind, htmlBlockText(n, kind))
	})
	return node, nil
}

// NCX structures for toc.ncx.
type ncx struct {
	NavMap struct {
		NavPoints []navPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type navPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

// epubTOC maps spine hrefs (with fragments stripped) to NCX labels. A book
// without an NCX yields an empty map.
func epubTOC(filename string, book *epub.Rootfile) (map[string]string, error) {
	result := make(map[string]string)

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		return result, nil
	}

	zr, err := zip.OpenReader(filename)
	if err != nil {
		return result, err
	}
	defer zr.Close()

	var data []byte
	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return result, err
			}
			data, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return result, err
			}
			break
		}
	}
	if data == nil {
		return result, fmt.Errorf("ncx %s not found in archive", ncxPath)
	}

	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return result, fmt.Errorf("parse ncx: %w", err)
	}

	var walk func([]navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			href, _, _ := strings.Cut(np.Content.Src, "#")
			for _, key := range []string{href, path.Base(href)} {
				if _, ok := result[key]; !ok {
					result[key] = strings.TrimSpace(np.Label.Text)
				}
			}
			walk(np.Children)
		}
	}
	walk(toc.NavMap.NavPoints)
	return result, nil
}

func tocTitle(toc map[string]string, href string) string {
	if t, ok := toc[href]; ok {
		return t
	}
	return toc[path.Base(href)]
}
