package segmenter

import (
	"regexp"
	"strings"
	"unicode"
)

// WordCounter counts words in a span of text. Implementations must be pure.
type WordCounter interface {
	CountWords(text string) int
}

// Word policy constants.
const (
	// MaxURLWords caps the words a single URL token counts for.
	MaxURLWords = 3
	// HyphenSplitThreshold is the part count above which a hyphenated
	// token counts each part as a word.
	HyphenSplitThreshold = 3
)

// DefaultExceptions maps lowercased tokens to fixed word counts.
var DefaultExceptions = map[string]int{
	"state-of-the-art": 2,
}

var urlTokenRe = regexp.MustCompile(`(?i)^(https?://|www\.)\S+`)

// WordPolicy is the whitespace-token word counter.
type WordPolicy struct {
	Exceptions           map[string]int
	MaxURLWords          int
	HyphenSplitThreshold int
}

// DefaultWordPolicy is the policy used when none is configured.
var DefaultWordPolicy = WordPolicy{
	Exceptions:           DefaultExceptions,
	MaxURLWords:          MaxURLWords,
	HyphenSplitThreshold: HyphenSplitThreshold,
}

// CountWords sums CountToken over the whitespace-delimited tokens of text.
func (p WordPolicy) CountWords(text string) int {
	n := 0
	for _, tok := range strings.Fields(text) {
		n += p.CountToken(tok)
	}
	return n
}

// CountToken returns how many words a single token counts for.
func (p WordPolicy) CountToken(tok string) int {
	if urlTokenRe.MatchString(tok) {
		return min(urlSegments(tok), p.MaxURLWords)
	}

	core := strings.TrimFunc(tok, notAlnum)
	if core == "" {
		return 0
	}
	if n, ok := p.Exceptions[strings.ToLower(core)]; ok {
		return n
	}
	if isNumeric(core) {
		return 0
	}
	if strings.Contains(core, "-") {
		parts := strings.FieldsFunc(core, func(r rune) bool { return r == '-' })
		if len(parts) > p.HyphenSplitThreshold {
			return len(parts)
		}
	}
	return 1
}

// urlSegments counts the host and path/query parts of a URL; the scheme
// is not a segment.
func urlSegments(tok string) int {
	if _, rest, ok := strings.Cut(tok, "://"); ok {
		tok = rest
	}
	return len(strings.FieldsFunc(tok, func(r rune) bool {
		return r == '/' || r == '?' || r == '&' || r == '#'
	}))
}

func notAlnum(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// isNumeric reports whether s is digits with optional number separators.
func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune(".,:-/", r):
		default:
			return false
		}
	}
	return digits > 0
}
