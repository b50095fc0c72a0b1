package segmenter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/structure"
)

// Strategy names the boundary rule that produced a set of paragraphs.
type Strategy string

const (
	StrategyMarkup    Strategy = "markup"
	StrategyBlankLine Strategy = "blank_line"
	StrategyLine      Strategy = "line"
	StrategyWhole     Strategy = "whole"
)

// Base paragraph confidence per strategy.
const (
	MarkupConfidence    = 1.0
	BlankLineConfidence = 0.9
	LineConfidence      = 0.7
	WholeConfidence     = 0.6

	// UnterminatedPenalty applies when the last sentence needed a period appended.
	UnterminatedPenalty = 0.2
	// NoWordsPenalty applies when nothing in the paragraph counts as a word.
	NoWordsPenalty = 0.2
)

var strategyConfidence = map[Strategy]float64{
	StrategyMarkup:    MarkupConfidence,
	StrategyBlankLine: BlankLineConfidence,
	StrategyLine:      LineConfidence,
	StrategyWhole:     WholeConfidence,
}

var blankLineRe = regexp.MustCompile(`\n(?:[ \t\r]*\n)+`)

var (
	orderedListRe = regexp.MustCompile(`^\d+[.)]\s`)
	tableRowRe    = regexp.MustCompile(`^\|.*\|.*\|`)
)

// candidate is a trimmed paragraph span with its kind.
type candidate struct {
	span
	kind structure.ContentKind
}

// paragraphSpans picks the first boundary strategy yielding more than one
// non-empty unit, falling back to the whole chapter.
func paragraphSpans(text string, blocks []doctree.Block) ([]candidate, Strategy) {
	if c := fromBlocks(text, blocks); len(c) > 1 {
		return c, StrategyMarkup
	}
	if c := fromSeparator(text, blankLineRe.FindAllStringIndex(text, -1)); len(c) > 1 {
		return c, StrategyBlankLine
	}
	if c := fromSeparator(text, lineBreaks(text)); len(c) > 1 {
		return c, StrategyLine
	}

	s, ok := trimSpan(text, span{0, len(text)})
	if !ok {
		return nil, StrategyWhole
	}
	kind := detectKind(text[s.start:s.end])
	if len(blocks) == 1 {
		kind = blockKind(blocks[0].Kind)
	}
	return []candidate{{span: s, kind: kind}}, StrategyWhole
}

func fromBlocks(text string, blocks []doctree.Block) []candidate {
	if len(blocks) == 0 {
		return nil
	}
	sorted := append([]doctree.Block(nil), blocks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []candidate
	prevEnd := 0
	for _, b := range sorted {
		start := max(b.Start, prevEnd)
		end := min(b.End, len(text))
		if start >= end {
			continue
		}
		s, ok := trimSpan(text, span{start, end})
		if !ok {
			continue
		}
		out = append(out, candidate{span: s, kind: blockKind(b.Kind)})
		prevEnd = end
	}
	return out
}

// fromSeparator splits text around the given separator spans.
func fromSeparator(text string, seps [][]int) []candidate {
	var out []candidate
	prev := 0
	emit := func(start, end int) {
		if s, ok := trimSpan(text, span{start, end}); ok {
			out = append(out, candidate{span: s, kind: detectKind(text[s.start:s.end])})
		}
	}
	for _, sep := range seps {
		emit(prev, sep[0])
		prev = sep[1]
	}
	emit(prev, len(text))
	return out
}

func lineBreaks(text string) [][]int {
	var out [][]int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, []int{i, i + 1})
		}
	}
	return out
}

// trimSpan shrinks s to exclude surrounding whitespace; ok is false when
// nothing is left.
func trimSpan(text string, s span) (span, bool) {
	seg := text[s.start:s.end]
	left := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	right := len(strings.TrimRightFunc(seg, unicode.IsSpace))
	if right <= left {
		return span{}, false
	}
	return span{start: s.start + left, end: s.start + right}, true
}

func blockKind(k doctree.BlockKind) structure.ContentKind {
	switch k {
	case doctree.BlockCode:
		return structure.KindCode
	case doctree.BlockListItem:
		return structure.KindListItem
	case doctree.BlockQuote:
		return structure.KindQuote
	case doctree.BlockHeading:
		return structure.KindHeading
	case doctree.BlockTable:
		return structure.KindTable
	default:
		return structure.KindText
	}
}

// detectKind guesses a paragraph kind from lightweight markup prefixes.
func detectKind(p string) structure.ContentKind {
	switch {
	case strings.HasPrefix(p, "```"), strings.HasPrefix(p, "~~~"):
		return structure.KindCode
	case strings.HasPrefix(p, "> "), p == ">":
		return structure.KindQuote
	case strings.HasPrefix(p, "#"):
		return structure.KindHeading
	case strings.HasPrefix(p, "- "), strings.HasPrefix(p, "* "), strings.HasPrefix(p, "+ "), orderedListRe.MatchString(p):
		return structure.KindListItem
	case tableRowRe.MatchString(p):
		return structure.KindTable
	}
	return structure.KindText
}

// narrated reports whether a paragraph of kind k is read aloud.
func narrated(k structure.ContentKind) bool {
	return k != structure.KindCode && k != structure.KindTable
}
