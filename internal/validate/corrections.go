package validate

import (
	"fmt"
	"slices"

	"github.com/dgallion1/docstruct/internal/builder"
	"github.com/dgallion1/docstruct/internal/confidence"
	"github.com/dgallion1/docstruct/internal/structure"
)

// CorrectionBonus is added to the recomputed confidence per applied correction.
const CorrectionBonus = 0.05

// CorrectionNudge separates the corrected confidence from the original when
// recomputing lands on the same value, which happens at the 1.0 ceiling.
const CorrectionNudge = 0.01

// CorrectionType names a kind of structural fix.
type CorrectionType string

const (
	CorrectRemoveEmptyChapters   CorrectionType = "remove_empty_chapters"
	CorrectRemoveEmptyParagraphs CorrectionType = "remove_empty_paragraphs"
	CorrectMergeChapter          CorrectionType = "merge_chapter"
	CorrectRetitleChapter        CorrectionType = "retitle_chapter"
)

// Correction is a proposed fix. Apply edits the working copy it is given;
// it never sees the caller's structure.
type Correction struct {
	ID          string
	Type        CorrectionType
	Location    Location
	Description string
	// Resolves lists the issue codes this correction fixes once applied. When
	// Location names a chapter, only issues in that chapter are resolved.
	Resolves []string
	Apply    func(doc *structure.DocumentStructure) error
}

// OutcomeStatus is the result of applying one correction.
type OutcomeStatus string

const (
	Applied OutcomeStatus = "applied"
	Failed  OutcomeStatus = "failed"
)

// Outcome records what happened to one correction.
type Outcome struct {
	CorrectionID string         `json:"correction_id" yaml:"correction_id"`
	Type         CorrectionType `json:"type" yaml:"type"`
	Location     Location       `json:"location" yaml:"location"`
	Status       OutcomeStatus  `json:"status" yaml:"status"`
	Detail       string         `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// RemainingIssue is a problem still open after corrections ran.
type RemainingIssue struct {
	Type        string   `json:"type" yaml:"type"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Description string   `json:"description" yaml:"description"`
	Location    Location `json:"location" yaml:"location"`
}

// CorrectionReport is the result of ApplyCorrections.
type CorrectionReport struct {
	Structure           *structure.DocumentStructure `json:"structure" yaml:"structure"`
	Outcomes            []Outcome                    `json:"outcomes" yaml:"outcomes"`
	Applied             []Correction                 `json:"-" yaml:"-"`
	RemainingIssues     []RemainingIssue             `json:"remaining_issues" yaml:"remaining_issues"`
	OriginalConfidence  float64                      `json:"original_confidence" yaml:"original_confidence"`
	CorrectedConfidence float64                      `json:"corrected_confidence" yaml:"corrected_confidence"`
}

// CorrectionError wraps a failure raised by one correction.
type CorrectionError struct {
	CorrectionID string
	Err          error
}

func (e *CorrectionError) Error() string {
	return fmt.Sprintf("correction %s: %v", e.CorrectionID, e.Err)
}

func (e *CorrectionError) Unwrap() error { return e.Err }

// ApplyCorrections applies each correction in order to a copy of doc. A
// failing or panicking correction is recorded and skipped; the rest still
// run. Neither doc nor corrections are modified. A nil scorer uses
// confidence.Default.
func ApplyCorrections(doc *structure.DocumentStructure, report Report, corrections []Correction, scorer confidence.Scorer) CorrectionReport {
	if scorer == nil {
		scorer = confidence.Default
	}

	work := doc.Clone()
	out := CorrectionReport{
		Outcomes:           make([]Outcome, 0, len(corrections)),
		OriginalConfidence: doc.Confidence,
	}

	var failed []failure
	for _, c := range corrections {
		next, err := applyOne(c, work)
		o := Outcome{CorrectionID: c.ID, Type: c.Type, Location: c.Location}
		if err != nil {
			o.Status = Failed
			o.Detail = err.Error()
			failed = append(failed, failure{c: c, err: err})
		} else {
			o.Status = Applied
			work = next
			out.Applied = append(out.Applied, c)
		}
		out.Outcomes = append(out.Outcomes, o)
	}

	if len(out.Applied) > 0 {
		base := scorer.Score(builder.MetricsFor(work))
		work.Confidence = correctedConfidence(doc.Confidence, base, len(out.Applied))
	}
	out.Structure = work
	out.CorrectedConfidence = work.Confidence
	out.RemainingIssues = remaining(report, out.Applied, failed)
	return out
}

// correctedConfidence is the rescored value plus the per-correction bonus,
// clamped and never equal to original.
func correctedConfidence(original, base float64, applied int) float64 {
	c := confidence.Clamp(base + CorrectionBonus*float64(applied))
	if c != original {
		return c
	}
	if c+CorrectionNudge > 1 {
		return confidence.Clamp(c - CorrectionNudge)
	}
	return c + CorrectionNudge
}

type failure struct {
	c   Correction
	err error
}

// applyOne runs c against a clone of doc so a failure leaves doc untouched.
func applyOne(c Correction, doc *structure.DocumentStructure) (next *structure.DocumentStructure, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = &CorrectionError{CorrectionID: c.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if c.Apply == nil {
		return nil, &CorrectionError{CorrectionID: c.ID, Err: ErrNoApply}
	}
	work := doc.Clone()
	if err := c.Apply(work); err != nil {
		return nil, &CorrectionError{CorrectionID: c.ID, Err: err}
	}
	return work, nil
}

func remaining(report Report, applied []Correction, failed []failure) []RemainingIssue {
	out := []RemainingIssue{}
	add := func(i Issue) {
		if resolved(i, applied) {
			return
		}
		out = append(out, RemainingIssue{
			Type:        i.Code,
			Severity:    i.Severity,
			Description: i.Message,
			Location:    i.Location,
		})
	}
	for _, e := range report.Errors {
		add(e)
	}
	for _, w := range report.Warnings {
		add(w)
	}
	for _, f := range failed {
		out = append(out, RemainingIssue{
			Type:        string(f.c.Type),
			Severity:    SeverityError,
			Description: f.err.Error(),
			Location:    f.c.Location,
		})
	}
	return out
}

func resolved(i Issue, applied []Correction) bool {
	for _, c := range applied {
		if !slices.Contains(c.Resolves, i.Code) {
			continue
		}
		if c.Location.Chapter == nil || (i.Location.Chapter != nil && *i.Location.Chapter == *c.Location.Chapter) {
			return true
		}
	}
	return false
}

// RemoveEmptyChapters drops chapters without paragraphs.
func RemoveEmptyChapters() Correction {
	return Correction{
		ID:          string(CorrectRemoveEmptyChapters),
		Type:        CorrectRemoveEmptyChapters,
		Description: "remove chapters without content",
		Resolves:    []string{CodeEmptyChapter},
		Apply: func(doc *structure.DocumentStructure) error {
			doc.Chapters = slices.DeleteFunc(doc.Chapters, func(ch structure.Chapter) bool {
				return len(ch.Paragraphs) == 0
			})
			doc.Recalculate()
			return nil
		},
	}
}

// RemoveEmptyParagraphs drops paragraphs without sentences.
func RemoveEmptyParagraphs() Correction {
	return Correction{
		ID:          string(CorrectRemoveEmptyParagraphs),
		Type:        CorrectRemoveEmptyParagraphs,
		Description: "remove paragraphs without sentences",
		Resolves:    []string{CodeEmptyParagraph},
		Apply: func(doc *structure.DocumentStructure) error {
			for i := range doc.Chapters {
				ch := &doc.Chapters[i]
				ch.Paragraphs = slices.DeleteFunc(ch.Paragraphs, func(p structure.Paragraph) bool {
					return len(p.Sentences) == 0
				})
			}
			doc.Recalculate()
			return nil
		},
	}
}

// MergeChapterIntoPrevious appends chapter index's paragraphs to the chapter
// before it and removes it.
func MergeChapterIntoPrevious(index int) Correction {
	return Correction{
		ID:          fmt.Sprintf("%s:%d", CorrectMergeChapter, index),
		Type:        CorrectMergeChapter,
		Location:    AtChapter(index),
		Description: fmt.Sprintf("merge chapter %d into chapter %d", index, index-1),
		Resolves:    []string{CodeShortChapter, CodeEmptyChapter, CodeChapterLengthOutlier},
		Apply: func(doc *structure.DocumentStructure) error {
			if index < 1 || index >= len(doc.Chapters) {
				return fmt.Errorf("merge chapter %d of %d: %w", index, len(doc.Chapters), ErrIndexOutOfRange)
			}
			prev := &doc.Chapters[index-1]
			cur := doc.Chapters[index]
			prev.Paragraphs = append(prev.Paragraphs, cur.Paragraphs...)
			prev.Range.End = max(prev.Range.End, cur.Range.End)
			doc.Chapters = slices.Delete(doc.Chapters, index, index+1)
			doc.Recalculate()
			return nil
		},
	}
}

// RetitleChapter sets the title of chapter index.
func RetitleChapter(index int, title string) Correction {
	return Correction{
		ID:          fmt.Sprintf("%s:%d", CorrectRetitleChapter, index),
		Type:        CorrectRetitleChapter,
		Location:    AtChapter(index),
		Description: fmt.Sprintf("retitle chapter %d to %q", index, title),
		Apply: func(doc *structure.DocumentStructure) error {
			if index < 0 || index >= len(doc.Chapters) {
				return fmt.Errorf("retitle chapter %d of %d: %w", index, len(doc.Chapters), ErrIndexOutOfRange)
			}
			doc.Chapters[index].Title = title
			doc.Recalculate()
			return nil
		},
	}
}
