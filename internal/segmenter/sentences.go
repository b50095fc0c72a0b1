package segmenter

import (
	"regexp"
	"strings"
	"unicode"
)

// sentenceBoundaryRe matches a run of terminal punctuation, optional closing
// quotes or brackets, and the whitespace after it.
var sentenceBoundaryRe = regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`)

const closers = `"'”’)]`

var inlineFormattingRe = regexp.MustCompile("\\*\\*.+?\\*\\*|__.+?__|\\*[^*\\s][^*]*\\*|`[^`]+`|!?\\[[^\\]]+\\]\\([^)]+\\)")

// span is a [start, end) byte range relative to some base text.
type span struct {
	start, end int
}

// splitSentences returns sentence spans of p in order. p must be trimmed.
func splitSentences(p string) []span {
	if p == "" {
		return nil
	}
	var out []span
	prev := 0
	for _, m := range sentenceBoundaryRe.FindAllStringIndex(p, -1) {
		seg := p[prev:m[1]]
		end := prev + len(strings.TrimRightFunc(seg, unicode.IsSpace))
		if end > prev {
			out = append(out, span{start: prev, end: end})
		}
		prev = m[1]
	}
	if prev < len(p) {
		out = append(out, span{start: prev, end: len(p)})
	}
	return out
}

// endsTerminal reports whether s ends in terminal punctuation, ignoring closers.
func endsTerminal(s string) bool {
	s = strings.TrimRight(s, closers)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// sentenceText collapses inner whitespace and appends a period when the
// fragment lacks terminal punctuation. The second result reports the append.
func sentenceText(src string) (string, bool) {
	text := strings.Join(strings.Fields(src), " ")
	if endsTerminal(text) {
		return text, false
	}
	return text + ".", true
}

func hasInlineFormatting(s string) bool {
	return inlineFormattingRe.MatchString(s)
}
