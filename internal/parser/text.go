package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// chapterHeadingRe matches lines like "Chapter 3", "PART II: The Return" or
// "Section 4.1 Results".
var chapterHeadingRe = regexp.MustCompile(`(?i)^(chapter|part|section|book|prologue|epilogue)\b(\s+[0-9ivxlcdm.]+)?\b[^.!?]*$`)

// maxHeadingLength bounds what a heading line may be.
const maxHeadingLength = 80

// TextParser handles plain text files. Lines that look like chapter headings
// start new sections; everything else is kept verbatim.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	// advance is the byte length of the last line including its terminator.
	var advance int
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		n, tok, err := bufio.ScanLines(data, atEOF)
		advance = n
		return n, tok, err
	})

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".txt"),
	}

	current := &doctree.DocNode{}
	var body strings.Builder
	flush := func() {
		current.Text = strings.Trim(body.String(), "\n")
		if current.Text != "" || current.Title != "" {
			tree.Children = append(tree.Children, current)
		}
		body.Reset()
	}

	lineNo, pos := 0, 0
	started := false
	for scanner.Scan() {
		lineNo++
		start := pos
		pos += advance
		line := scanner.Text()
		if isChapterHeading(line) {
			flush()
			current = &doctree.DocNode{Title: strings.TrimSpace(line), Page: lineNo}
			started = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			line = ""
		} else if !started {
			current.Offset = start
			started = true
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()

	tree.Stats = map[string]any{"lines": lineNo}
	return tree, nil
}

func isChapterHeading(line string) bool {
	t := strings.TrimSpace(line)
	return t != "" && len(t) <= maxHeadingLength && chapterHeadingRe.MatchString(t)
}
