// Package builder assembles a DocumentStructure from an adapter's DocTree.
package builder

import (
	"sync"
	"time"

	"github.com/dgallion1/docstruct/internal/confidence"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/segmenter"
	"github.com/dgallion1/docstruct/internal/structure"
)

// DefaultConcurrency bounds parallel chapter segmentation when unset.
const DefaultConcurrency = 8

// Builder turns raw chapter records into the canonical structure.
type Builder struct {
	Scorer      confidence.Scorer     // nil uses confidence.Default
	WordCounter segmenter.WordCounter // nil uses segmenter.DefaultWordPolicy
	Concurrency int                   // max chapters segmented at once
	Now         func() time.Time      // clock for processing metrics
}

// New returns a Builder with default scoring and word counting.
func New() *Builder {
	return &Builder{
		Scorer:      confidence.Default,
		WordCounter: segmenter.DefaultWordPolicy,
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
	}
}

// ChapterOffsets computes the source start of each chapter. A chapter starts
// at its position hint, or at the previous chapter's end if the hint falls
// before it.
func ChapterOffsets(chapters []doctree.RawChapter) []int {
	offsets := make([]int, len(chapters))
	prevEnd := 0
	for i, ch := range chapters {
		offsets[i] = max(ch.SourceOffset, prevEnd)
		prevEnd = offsets[i] + len(ch.Text)
	}
	return offsets
}

// Build segments every chapter of tree and fills totals, TOC, confidence and
// processing metrics.
func (b *Builder) Build(tree *doctree.DocTree) *structure.DocumentStructure {
	now := b.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	raw := tree.Chapters()
	offsets := ChapterOffsets(raw)
	chapters := b.segmentAll(raw, offsets, tree.Title)

	meta := tree.Metadata
	if meta.Title == "" {
		meta.Title = tree.Title
	}
	doc := &structure.DocumentStructure{
		Metadata:    meta,
		Chapters:    chapters,
		SourceStats: tree.Stats,
	}
	// Totals, chapter confidences and the TOC are derived here.
	doc.Recalculate()

	scorer := b.Scorer
	if scorer == nil {
		scorer = confidence.Default
	}
	doc.Confidence = confidence.Clamp(scorer.Score(MetricsFor(doc)))

	end := now()
	doc.Metrics = structure.ProcessingMetrics{
		ParseStartTime:   start,
		ParseEndTime:     end,
		ParseDurationMs:  end.Sub(start).Milliseconds(),
		SourceLength:     sourceLength(chapters),
		ProcessingErrors: append([]string{}, tree.Errors...),
	}
	return doc
}

// segmentAll runs the segmenter over each chapter in parallel. Results are
// placed by index so output order matches input order.
func (b *Builder) segmentAll(raw []doctree.RawChapter, offsets []int, docID string) []structure.Chapter {
	limit := b.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	out := make([]structure.Chapter, len(raw))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := range raw {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = b.segmentChapter(raw[i], i, offsets[i], docID)
		}(i)
	}
	wg.Wait()
	return out
}

func (b *Builder) segmentChapter(ch doctree.RawChapter, index, offset int, docID string) structure.Chapter {
	id := segmenter.ID(docID, "c", index)
	paras := segmenter.Segment(ch.Text, offset, segmenter.Options{
		Blocks:      ch.Blocks,
		WordCounter: b.WordCounter,
		IDPrefix:    id,
	})
	return structure.Chapter{
		ID:         id,
		Title:      ch.Title,
		Level:      ch.Level,
		Depth:      ch.Level - 1,
		Paragraphs: paras,
		Position:   index,
		Range:      structure.Range{Start: offset, End: offset + len(ch.Text)},
	}
}

// MetricsFor derives the confidence scorer input from a built structure.
func MetricsFor(doc *structure.DocumentStructure) confidence.Metrics {
	var elems confidence.Elements
	for _, ch := range doc.Chapters {
		elems = elems.Add(segmenter.DetectElements(ch.Paragraphs))
	}
	return confidence.Metrics{
		WordCount:       doc.TotalWordCount,
		ChapterCount:    len(doc.Chapters),
		TotalParagraphs: doc.TotalParagraphs,
		Current:         mean(doc.ParagraphConfidences()),
		Elements:        elems,
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sourceLength(chapters []structure.Chapter) int {
	if len(chapters) == 0 {
		return 0
	}
	return chapters[len(chapters)-1].Range.End
}
