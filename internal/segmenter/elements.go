package segmenter

import (
	"regexp"

	"github.com/dgallion1/docstruct/internal/confidence"
	"github.com/dgallion1/docstruct/internal/structure"
)

var (
	imageRe   = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinkRe  = regexp.MustCompile(`(?:^|[^!])\[[^\]]+\]\([^)]+\)`)
	bareURLRe = regexp.MustCompile(`(?:^|\s)(?:https?://|www\.)\S+`)
)

// DetectElements counts structural elements across paragraphs. Consecutive
// list items count as one list.
func DetectElements(paragraphs []structure.Paragraph) confidence.Elements {
	var e confidence.Elements
	prevList := false
	for _, p := range paragraphs {
		switch p.Kind {
		case structure.KindTable:
			e.Tables++
		case structure.KindCode:
			e.CodeBlocks++
		case structure.KindQuote:
			e.Quotes++
		case structure.KindListItem:
			if !prevList {
				e.Lists++
			}
		}
		prevList = p.Kind == structure.KindListItem

		e.Images += len(imageRe.FindAllStringIndex(p.RawText, -1))
		e.Links += len(mdLinkRe.FindAllStringIndex(p.RawText, -1))
		e.Links += len(bareURLRe.FindAllStringIndex(p.RawText, -1))
	}
	return e
}
