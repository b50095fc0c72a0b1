package builder

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/confidence"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/parser"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		return t0.Add(time.Duration(calls-1) * 25 * time.Millisecond)
	}
}

func sampleTree() *doctree.DocTree {
	intro := &doctree.DocNode{Title: "Intro"}
	intro.AppendBlock(doctree.BlockText, "Hello world. How are you?")
	intro.AppendBlock(doctree.BlockCode, "fmt.Println(1)")

	part := &doctree.DocNode{Title: "Part One"}
	sub := &doctree.DocNode{Title: "Section A", Text: "First line here.\nSecond line there."}
	part.Children = []*doctree.DocNode{sub}

	empty := &doctree.DocNode{Title: "Blank"}

	return &doctree.DocTree{
		Title:    "sample",
		Metadata: doctree.Metadata{Author: "A. Writer"},
		Children: []*doctree.DocNode{intro, part, empty},
		Stats:    map[string]any{"spine_items": 3},
		Errors:   []string{"page 4: unreadable"},
	}
}

func TestChapterOffsets(t *testing.T) {
	chapters := []doctree.RawChapter{
		{Text: "abcde"},
		{Text: "xyz", SourceOffset: 2},
		{Text: "", SourceOffset: 20},
		{Text: "12"},
	}
	got := ChapterOffsets(chapters)
	want := []int{0, 5, 20, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chapter %d: expected offset %d, got %d", i, want[i], got[i])
		}
	}
}

func TestBuild_TextRangesAnchorToFile(t *testing.T) {
	input := "A short preface.\n\nChapter 1\n\n  It was a dark night. Rain fell.\n\nEpilogue\nThe end."
	tree, err := (&parser.TextParser{}).Parse(strings.NewReader(input), "book.txt")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	doc := New().Build(tree)
	if len(doc.Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(doc.Chapters))
	}
	for _, ch := range doc.Chapters {
		for _, p := range ch.Paragraphs {
			if got := input[p.Range.Start:p.Range.End]; got != p.RawText {
				t.Errorf("chapter %q: expected file bytes %q, got %q", ch.Title, p.RawText, got)
			}
		}
	}
	if got := doc.Metrics.SourceLength; got != len(input) {
		t.Errorf("expected source length %d, got %d", len(input), got)
	}
}

func TestBuild_RangesMonotonic(t *testing.T) {
	b := New()
	b.Now = fixedClock()
	doc := b.Build(sampleTree())

	if len(doc.Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(doc.Chapters))
	}
	for i := 1; i < len(doc.Chapters); i++ {
		if doc.Chapters[i].Range.Start < doc.Chapters[i-1].Range.End {
			t.Errorf("chapter %d starts at %d before previous end %d", i, doc.Chapters[i].Range.Start, doc.Chapters[i-1].Range.End)
		}
	}
	for i, ch := range doc.Chapters {
		if ch.Position != i {
			t.Errorf("chapter %d: expected position %d, got %d", i, i, ch.Position)
		}
		for _, p := range ch.Paragraphs {
			if !ch.Range.Contains(p.Range) {
				t.Errorf("chapter %d: paragraph range %+v outside %+v", i, p.Range, ch.Range)
			}
		}
	}
}

func TestBuild_WordCountsAggregate(t *testing.T) {
	doc := New().Build(sampleTree())

	docTotal := 0
	docDuration := 0.0
	for _, ch := range doc.Chapters {
		chTotal := 0
		for _, p := range ch.Paragraphs {
			pTotal := 0
			for _, s := range p.Sentences {
				pTotal += s.WordCount
			}
			if pTotal != p.WordCount {
				t.Errorf("paragraph %s: expected %d words, got %d", p.ID, pTotal, p.WordCount)
			}
			chTotal += p.WordCount
		}
		if chTotal != ch.WordCount {
			t.Errorf("chapter %q: expected %d words, got %d", ch.Title, chTotal, ch.WordCount)
		}
		docTotal += ch.WordCount
		docDuration += ch.EstimatedDuration
	}
	if docTotal != doc.TotalWordCount {
		t.Errorf("expected total %d words, got %d", docTotal, doc.TotalWordCount)
	}
	if docDuration != doc.EstimatedDuration {
		t.Errorf("expected total duration %v, got %v", docDuration, doc.EstimatedDuration)
	}
}

func TestBuild_ChapterDetails(t *testing.T) {
	doc := New().Build(sampleTree())

	intro := doc.Chapters[0]
	if len(intro.Paragraphs) != 2 {
		t.Fatalf("expected 2 intro paragraphs, got %d", len(intro.Paragraphs))
	}
	if intro.Paragraphs[1].Kind != "code" {
		t.Errorf("expected code paragraph, got %q", intro.Paragraphs[1].Kind)
	}
	if intro.Confidence == nil {
		t.Fatal("expected chapter confidence")
	}

	section := doc.Chapters[1]
	if section.Title != "Section A" || section.Level != 2 || section.Depth != 1 {
		t.Errorf("unexpected nested chapter %q level=%d depth=%d", section.Title, section.Level, section.Depth)
	}

	blank := doc.Chapters[2]
	if len(blank.Paragraphs) != 0 {
		t.Errorf("expected empty chapter to have no paragraphs, got %d", len(blank.Paragraphs))
	}
	if blank.Confidence != nil {
		t.Errorf("expected nil confidence for empty chapter, got %v", *blank.Confidence)
	}

	if len(doc.TableOfContents) != 3 || doc.TableOfContents[1].Title != "Section A" {
		t.Errorf("unexpected toc %+v", doc.TableOfContents)
	}
}

func TestBuild_Metrics(t *testing.T) {
	b := New()
	b.Now = fixedClock()
	doc := b.Build(sampleTree())

	if doc.Metrics.ParseDurationMs != 25 {
		t.Errorf("expected 25ms duration, got %d", doc.Metrics.ParseDurationMs)
	}
	if doc.Metrics.SourceLength != doc.Chapters[2].Range.End {
		t.Errorf("expected source length %d, got %d", doc.Chapters[2].Range.End, doc.Metrics.SourceLength)
	}
	if len(doc.Metrics.ProcessingErrors) != 1 {
		t.Errorf("expected adapter errors to be copied, got %v", doc.Metrics.ProcessingErrors)
	}
	if doc.Metadata.Title != "sample" || doc.Metadata.Author != "A. Writer" {
		t.Errorf("unexpected metadata %+v", doc.Metadata)
	}
	if doc.SourceStats["spine_items"] != 3 {
		t.Errorf("expected source stats to carry through, got %v", doc.SourceStats)
	}
}

func TestBuild_ConfidenceInRange(t *testing.T) {
	trees := []*doctree.DocTree{
		{},
		{Children: []*doctree.DocNode{{Text: "a"}}},
		sampleTree(),
	}
	for i, tree := range trees {
		doc := New().Build(tree)
		if doc.Confidence < 0 || doc.Confidence > 1 {
			t.Errorf("tree %d: confidence %v out of range", i, doc.Confidence)
		}
	}
}

func TestBuild_SingleCharacterDocument(t *testing.T) {
	doc := New().Build(&doctree.DocTree{Children: []*doctree.DocNode{{Text: "a"}}})
	if doc.TotalWordCount != 1 || doc.TotalSentences != 1 {
		t.Fatalf("expected one word in one sentence, got %d words %d sentences", doc.TotalWordCount, doc.TotalSentences)
	}
	if doc.Confidence != confidence.SingleCharacterFloor {
		t.Errorf("expected single-character floor %v, got %v", confidence.SingleCharacterFloor, doc.Confidence)
	}
}

func TestBuild_CustomScorer(t *testing.T) {
	b := New()
	b.Scorer = confidence.ScorerFunc(func(confidence.Metrics) float64 { return 7 })
	if doc := b.Build(sampleTree()); doc.Confidence != 1 {
		t.Errorf("expected clamped confidence 1, got %v", doc.Confidence)
	}
}

func TestBuild_DeterministicAcrossConcurrency(t *testing.T) {
	serial := New()
	serial.Concurrency = 1
	parallel := New()
	parallel.Concurrency = 16

	a := serial.Build(sampleTree())
	b := parallel.Build(sampleTree())
	for i := range a.Chapters {
		if a.Chapters[i].ID != b.Chapters[i].ID || a.Chapters[i].Range != b.Chapters[i].Range {
			t.Errorf("chapter %d differs between serial and parallel builds", i)
		}
	}
	if a.Confidence != b.Confidence {
		t.Errorf("expected equal confidence, got %v and %v", a.Confidence, b.Confidence)
	}
}

func TestMetricsFor(t *testing.T) {
	doc := New().Build(sampleTree())
	m := MetricsFor(doc)
	if m.ChapterCount != 3 || m.TotalParagraphs != doc.TotalParagraphs || m.WordCount != doc.TotalWordCount {
		t.Errorf("unexpected metrics %+v", m)
	}
	if m.Elements.CodeBlocks != 1 {
		t.Errorf("expected 1 code block, got %d", m.Elements.CodeBlocks)
	}
	if m.Current <= 0 || m.Current > 1 {
		t.Errorf("expected mean paragraph confidence in (0,1], got %v", m.Current)
	}
}
