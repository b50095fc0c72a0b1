// Package segmenter splits chapter text into paragraphs and sentences with
// character ranges anchored to the original source.
//
// Ranges are byte offsets. A paragraph's RawText is exactly the source bytes
// of its range; a sentence's Text has its whitespace collapsed and may carry
// an appended period that is not part of the source.
package segmenter

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/structure"
)

// SecondsPerWord is the narration rate used for every duration estimate.
const SecondsPerWord = 0.4

// Options controls one segmentation pass.
type Options struct {
	Blocks      []doctree.Block // markup blocks relative to the chapter text
	WordCounter WordCounter     // nil uses DefaultWordPolicy
	IDPrefix    string          // namespace for deterministic ids
}

// EstimateDuration converts a sentence word count to seconds.
func EstimateDuration(words int) float64 {
	return float64(words) * SecondsPerWord
}

// Segment splits text into paragraphs. offset is the position of text[0] in
// the document source. Whitespace-only text yields no paragraphs.
func Segment(text string, offset int, opts Options) []structure.Paragraph {
	wc := opts.WordCounter
	if wc == nil {
		wc = DefaultWordPolicy
	}

	cands, strategy := paragraphSpans(text, opts.Blocks)
	paragraphs := make([]structure.Paragraph, 0, len(cands))

	for _, c := range cands {
		raw := text[c.start:c.end]
		pid := ID(opts.IDPrefix, "p", len(paragraphs))
		p := structure.Paragraph{
			ID:                 pid,
			Kind:               c.kind,
			Position:           len(paragraphs),
			Range:              structure.Range{Start: offset + c.start, End: offset + c.end},
			RawText:            raw,
			IncludeInNarration: narrated(c.kind),
		}

		unterminated := false
		for _, s := range splitSentences(raw) {
			src := raw[s.start:s.end]
			sText, appended := sentenceText(src)
			unterminated = appended
			words := wc.CountWords(src)
			sent := structure.Sentence{
				ID:                  ID(pid, "s", len(p.Sentences)),
				Text:                sText,
				Position:            len(p.Sentences),
				Range:               structure.Range{Start: p.Range.Start + s.start, End: p.Range.Start + s.end},
				WordCount:           words,
				EstimatedDuration:   EstimateDuration(words),
				HasInlineFormatting: hasInlineFormatting(src),
			}
			p.Sentences = append(p.Sentences, sent)
			p.WordCount += sent.WordCount
			p.EstimatedDuration += sent.EstimatedDuration
		}
		if len(p.Sentences) == 0 {
			continue
		}

		p.Confidence = paragraphConfidence(strategy, unterminated, p.WordCount)
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

func paragraphConfidence(s Strategy, unterminated bool, words int) float64 {
	c := strategyConfidence[s]
	if unterminated {
		c -= UnterminatedPenalty
	}
	if words == 0 {
		c -= NoWordsPenalty
	}
	return min(1, max(0, c))
}

// ID returns a deterministic identifier for the index-th child of prefix.
func ID(prefix, level string, index int) string {
	name := fmt.Sprintf("%s/%s%d", prefix, level, index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
