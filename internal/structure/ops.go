package structure

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the document.
func (d *DocumentStructure) Clone() *DocumentStructure {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata.Custom = maps.Clone(d.Metadata.Custom)
	out.SourceStats = maps.Clone(d.SourceStats)
	out.TableOfContents = slices.Clone(d.TableOfContents)
	out.Metrics.ProcessingErrors = slices.Clone(d.Metrics.ProcessingErrors)

	out.Chapters = slices.Clone(d.Chapters)
	for i := range out.Chapters {
		out.Chapters[i] = out.Chapters[i].clone()
	}
	return &out
}

func (c Chapter) clone() Chapter {
	out := c
	if c.Confidence != nil {
		v := *c.Confidence
		out.Confidence = &v
	}
	out.Paragraphs = slices.Clone(c.Paragraphs)
	for i := range out.Paragraphs {
		out.Paragraphs[i].Sentences = slices.Clone(c.Paragraphs[i].Sentences)
	}
	return out
}

// Recalculate reassigns positions, re-sums word counts, durations and totals
// bottom-up from the sentences, and recomputes chapter confidences and the
// TOC. Call it after editing the tree.
func (d *DocumentStructure) Recalculate() {
	d.TotalParagraphs = 0
	d.TotalSentences = 0
	d.TotalWordCount = 0
	d.EstimatedDuration = 0

	for ci := range d.Chapters {
		ch := &d.Chapters[ci]
		ch.Position = ci
		ch.WordCount = 0
		ch.EstimatedDuration = 0
		for pi := range ch.Paragraphs {
			p := &ch.Paragraphs[pi]
			p.Position = pi
			p.WordCount = 0
			p.EstimatedDuration = 0
			for si := range p.Sentences {
				s := &p.Sentences[si]
				s.Position = si
				p.WordCount += s.WordCount
				p.EstimatedDuration += s.EstimatedDuration
			}
			ch.WordCount += p.WordCount
			ch.EstimatedDuration += p.EstimatedDuration
			d.TotalSentences += len(p.Sentences)
		}
		ch.Confidence = meanConfidence(ch.Paragraphs)
		d.TotalParagraphs += len(ch.Paragraphs)
		d.TotalWordCount += ch.WordCount
		d.EstimatedDuration += ch.EstimatedDuration
	}

	d.TableOfContents = BuildTOC(d.Chapters)
}

// BuildTOC derives a table of contents from chapter titles and levels.
func BuildTOC(chapters []Chapter) []TOCEntry {
	toc := make([]TOCEntry, 0, len(chapters))
	for i, ch := range chapters {
		toc = append(toc, TOCEntry{Title: ch.Title, Level: ch.Level, ChapterIndex: i})
	}
	return toc
}

// ParagraphConfidences returns every paragraph confidence in document order.
func (d *DocumentStructure) ParagraphConfidences() []float64 {
	out := make([]float64, 0, d.TotalParagraphs)
	for _, ch := range d.Chapters {
		for _, p := range ch.Paragraphs {
			out = append(out, p.Confidence)
		}
	}
	return out
}

// meanConfidence is the mean paragraph confidence, nil for a chapter with no
// paragraphs.
func meanConfidence(paras []Paragraph) *float64 {
	if len(paras) == 0 {
		return nil
	}
	sum := 0.0
	for _, p := range paras {
		sum += p.Confidence
	}
	m := sum / float64(len(paras))
	return &m
}
