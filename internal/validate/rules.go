package validate

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/dgallion1/docstruct/internal/structure"
)

// Built-in rule names.
const (
	RuleChapterStructure   = "chapter_structure"
	RuleParagraphStructure = "paragraph_structure"
	RuleSentenceStructure  = "sentence_structure"
	RuleStructureCoherence = "structure_coherence"
)

// Weights scale how much each error and warning lowers a rule's score.
type Weights struct {
	Error   float64
	Warning float64
}

// Config holds the thresholds used by the built-in rules and the report.
type Config struct {
	MinChapterWords        int
	MinParagraphConfidence float64
	MinSentenceLength      int // runes
	MaxSentenceLength      int // runes
	CriticalConfidence     float64
	WarningConfidence      float64
	OutlierDeviations      float64 // std devs from the mean chapter length
	MinChaptersForOutliers int
	MaxWarnings            int
	LongChapterWords       int
	MaxChapterCount        int

	ChapterWeights   Weights
	ParagraphWeights Weights
	SentenceWeights  Weights
	CoherenceWeights Weights
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinChapterWords:        50,
		MinParagraphConfidence: 0.5,
		MinSentenceLength:      3,
		MaxSentenceLength:      1000,
		CriticalConfidence:     0.3,
		WarningConfidence:      0.6,
		OutlierDeviations:      2,
		MinChaptersForOutliers: 3,
		MaxWarnings:            20,
		LongChapterWords:       10000,
		MaxChapterCount:        200,

		ChapterWeights:   Weights{Error: 0.5, Warning: 0.1},
		ParagraphWeights: Weights{Error: 0.3, Warning: 0.05},
		SentenceWeights:  Weights{Error: 0.2, Warning: 0.02},
		CoherenceWeights: Weights{Error: 0.4, Warning: 0.1},
	}
}

// ruleScore is max(0, 1 - errors*We - warnings*Ww).
func ruleScore(errs, warns int, w Weights) float64 {
	return max(0, 1-float64(errs)*w.Error-float64(warns)*w.Warning)
}

func finish(r Result, w Weights) Result {
	r.IsValid = len(r.Errors) == 0
	r.Score = ruleScore(len(r.Errors), len(r.Warnings), w)
	return r
}

// ChapterStructure flags missing, empty and short chapters.
type ChapterStructure struct{ Config Config }

func (ChapterStructure) Name() string { return RuleChapterStructure }

func (c ChapterStructure) Check(doc *structure.DocumentStructure) Result {
	var r Result
	if len(doc.Chapters) == 0 {
		r.Errors = append(r.Errors, Issue{
			Code:     CodeNoChapters,
			Message:  "document has no chapters",
			Severity: SeverityHigh,
		})
		return finish(r, c.Config.ChapterWeights)
	}

	for i, ch := range doc.Chapters {
		switch {
		case len(ch.Paragraphs) == 0:
			r.Warnings = append(r.Warnings, Issue{
				Code:     CodeEmptyChapter,
				Message:  fmt.Sprintf("chapter %q has no content", ch.Title),
				Location: AtChapter(i),
				Severity: SeverityMedium,
			})
		case ch.WordCount < c.Config.MinChapterWords:
			r.Warnings = append(r.Warnings, Issue{
				Code:     CodeShortChapter,
				Message:  fmt.Sprintf("chapter %q has %d words, below %d", ch.Title, ch.WordCount, c.Config.MinChapterWords),
				Location: AtChapter(i),
				Severity: SeverityLow,
			})
		}
	}
	return finish(r, c.Config.ChapterWeights)
}

// ParagraphStructure flags empty and low-confidence paragraphs.
type ParagraphStructure struct{ Config Config }

func (ParagraphStructure) Name() string { return RuleParagraphStructure }

func (p ParagraphStructure) Check(doc *structure.DocumentStructure) Result {
	var r Result
	for ci, ch := range doc.Chapters {
		for pi, para := range ch.Paragraphs {
			if len(para.Sentences) == 0 {
				r.Warnings = append(r.Warnings, Issue{
					Code:     CodeEmptyParagraph,
					Message:  "paragraph has no sentences",
					Location: AtParagraph(ci, pi),
					Severity: SeverityMedium,
				})
				continue
			}
			if para.Confidence < p.Config.MinParagraphConfidence {
				r.Warnings = append(r.Warnings, Issue{
					Code:     CodeLowParagraphConfidence,
					Message:  fmt.Sprintf("paragraph confidence %.2f below %.2f", para.Confidence, p.Config.MinParagraphConfidence),
					Location: AtParagraph(ci, pi),
					Severity: SeverityLow,
				})
			}
		}
	}
	return finish(r, p.Config.ParagraphWeights)
}

// SentenceStructure flags sentences outside the configured length bounds.
type SentenceStructure struct{ Config Config }

func (SentenceStructure) Name() string { return RuleSentenceStructure }

func (s SentenceStructure) Check(doc *structure.DocumentStructure) Result {
	var r Result
	for ci, ch := range doc.Chapters {
		for pi, para := range ch.Paragraphs {
			for si, sent := range para.Sentences {
				n := utf8.RuneCountInString(sent.Text)
				switch {
				case n < s.Config.MinSentenceLength:
					r.Warnings = append(r.Warnings, Issue{
						Code:     CodeSentenceTooShort,
						Message:  fmt.Sprintf("sentence has %d characters, below %d", n, s.Config.MinSentenceLength),
						Location: AtSentence(ci, pi, si),
						Severity: SeverityLow,
					})
				case n > s.Config.MaxSentenceLength:
					r.Warnings = append(r.Warnings, Issue{
						Code:     CodeSentenceTooLong,
						Message:  fmt.Sprintf("sentence has %d characters, above %d", n, s.Config.MaxSentenceLength),
						Location: AtSentence(ci, pi, si),
						Severity: SeverityMedium,
					})
				}
			}
		}
	}
	return finish(r, s.Config.SentenceWeights)
}

// StructureCoherence checks overall confidence and chapter length spread.
type StructureCoherence struct{ Config Config }

func (StructureCoherence) Name() string { return RuleStructureCoherence }

func (s StructureCoherence) Check(doc *structure.DocumentStructure) Result {
	var r Result
	switch {
	case doc.Confidence < s.Config.CriticalConfidence:
		r.Errors = append(r.Errors, Issue{
			Code:     CodeLowOverallConfidence,
			Message:  fmt.Sprintf("document confidence %.2f below %.2f", doc.Confidence, s.Config.CriticalConfidence),
			Severity: SeverityHigh,
		})
	case doc.Confidence < s.Config.WarningConfidence:
		r.Warnings = append(r.Warnings, Issue{
			Code:     CodeMediumOverallConfidence,
			Message:  fmt.Sprintf("document confidence %.2f below %.2f", doc.Confidence, s.Config.WarningConfidence),
			Severity: SeverityMedium,
		})
	}

	r.Warnings = append(r.Warnings, s.lengthOutliers(doc.Chapters)...)
	return finish(r, s.Config.CoherenceWeights)
}

// lengthOutliers reports chapters whose word count is more than
// OutlierDeviations standard deviations from the mean.
func (s StructureCoherence) lengthOutliers(chapters []structure.Chapter) []Issue {
	minChapters := max(s.Config.MinChaptersForOutliers, 2)
	if len(chapters) < minChapters {
		return nil
	}

	n := float64(len(chapters))
	sum := 0.0
	for _, ch := range chapters {
		sum += float64(ch.WordCount)
	}
	mean := sum / n
	variance := 0.0
	for _, ch := range chapters {
		d := float64(ch.WordCount) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / n)
	if stddev == 0 {
		return nil
	}

	var out []Issue
	for i, ch := range chapters {
		if math.Abs(float64(ch.WordCount)-mean) > s.Config.OutlierDeviations*stddev {
			out = append(out, Issue{
				Code:     CodeChapterLengthOutlier,
				Message:  fmt.Sprintf("chapter %q has %d words against a mean of %.0f", ch.Title, ch.WordCount, mean),
				Location: AtChapter(i),
				Severity: SeverityLow,
			})
		}
	}
	return out
}

// Builtins returns the four built-in rules configured with cfg.
func Builtins(cfg Config) []Rule {
	return []Rule{
		ChapterStructure{Config: cfg},
		ParagraphStructure{Config: cfg},
		SentenceStructure{Config: cfg},
		StructureCoherence{Config: cfg},
	}
}
