package parser

import (
	"strings"
	"testing"
)

func TestTextParser_NoHeadingsSingleSection(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != input {
		t.Errorf("expected text to be kept verbatim, got %q", tree.Children[0].Text)
	}
}

func TestTextParser_ChapterHeadings(t *testing.T) {
	input := "A short preface.\n\nChapter 1\n\nIt was a dark night.\n\nCHAPTER II: The Storm\nRain fell. It did not stop.\n\nEpilogue\nThe end."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "book.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		title, text string
		line        int
	}{
		{"", "A short preface.", 0},
		{"Chapter 1", "It was a dark night.", 3},
		{"CHAPTER II: The Storm", "Rain fell. It did not stop.", 7},
		{"Epilogue", "The end.", 10},
	}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		got := tree.Children[i]
		if got.Title != w.title || got.Text != w.text || got.Page != w.line {
			t.Errorf("section %d: expected %q/%q/line %d, got %q/%q/line %d", i, w.title, w.text, w.line, got.Title, got.Text, got.Page)
		}
	}
}

func TestTextParser_Offsets(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"lf", "A short preface.\n\nChapter 1\n\n  It was a dark night.\n\nEpilogue\nThe end."},
		{"crlf", "Chapter 1\r\n\r\nFirst line.\r\nChapter 2\r\nSecond line.\r\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := (&TextParser{}).Parse(strings.NewReader(tc.input), "book.txt")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, n := range tree.Children {
				first, _, _ := strings.Cut(n.Text, "\n")
				if !strings.HasPrefix(tc.input[n.Offset:], first) {
					t.Errorf("section %d: expected source at offset %d to start with %q, got %q", i, n.Offset, first, tc.input[n.Offset:])
				}
			}
		})
	}
}

func TestTextParser_HeadingLookalikes(t *testing.T) {
	for _, line := range []string{
		"Chapters are hard to write.",
		"Part of the problem is scope.",
		"Section 3 explains the rest of the argument in detail, and it keeps going well past any heading length.",
	} {
		if isChapterHeading(line) {
			t.Errorf("expected %q not to be a heading", line)
		}
	}
	for _, line := range []string{"Chapter 12", "PART IV", "Section 2.3 Methods", "Prologue"} {
		if !isChapterHeading(line) {
			t.Errorf("expected %q to be a heading", line)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", tree.Title)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace are normalized to blank lines.
	input := "Para one.\n   \nPara two."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Para one.\n\nPara two." {
		t.Errorf("unexpected text %q", tree.Children[0].Text)
	}
}
