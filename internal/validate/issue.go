// Package validate runs structural rules over a DocumentStructure and applies
// corrections to produce an improved copy.
package validate

import "errors"

// Severity grades an issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Issue codes reported by the built-in rules.
const (
	CodeNoChapters              = "NO_CHAPTERS"
	CodeEmptyChapter            = "EMPTY_CHAPTER"
	CodeShortChapter            = "SHORT_CHAPTER"
	CodeEmptyParagraph          = "EMPTY_PARAGRAPH"
	CodeLowParagraphConfidence  = "LOW_PARAGRAPH_CONFIDENCE"
	CodeSentenceTooShort        = "SENTENCE_TOO_SHORT"
	CodeSentenceTooLong         = "SENTENCE_TOO_LONG"
	CodeLowOverallConfidence    = "LOW_OVERALL_CONFIDENCE"
	CodeMediumOverallConfidence = "MEDIUM_OVERALL_CONFIDENCE"
	CodeChapterLengthOutlier    = "CHAPTER_LENGTH_OUTLIER"
)

var (
	// ErrIndexOutOfRange is returned by corrections addressing a missing chapter.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrRuleNameRequired is returned when registering a rule without a name.
	ErrRuleNameRequired = errors.New("rule name required")
	// ErrNoApply is returned for a correction without an Apply function.
	ErrNoApply = errors.New("correction has no apply function")
)

// Location points at a chapter, paragraph or sentence. Unset indices are nil.
type Location struct {
	Chapter   *int `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Paragraph *int `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
	Sentence  *int `json:"sentence,omitempty" yaml:"sentence,omitempty"`
}

// AtChapter locates chapter ch.
func AtChapter(ch int) Location {
	return Location{Chapter: &ch}
}

// AtParagraph locates paragraph p of chapter ch.
func AtParagraph(ch, p int) Location {
	return Location{Chapter: &ch, Paragraph: &p}
}

// AtSentence locates sentence s of paragraph p of chapter ch.
func AtSentence(ch, p, s int) Location {
	return Location{Chapter: &ch, Paragraph: &p, Sentence: &s}
}

// Issue is one validation error or warning.
type Issue struct {
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	Location Location `json:"location" yaml:"location"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// ValidationError and ValidationWarning share the Issue shape; which list an
// issue lands in decides whether it fails validation.
type (
	ValidationError   = Issue
	ValidationWarning = Issue
)

// Result is the output of one rule, and the merged output of a validation run.
type Result struct {
	IsValid  bool                `json:"is_valid" yaml:"is_valid"`
	Errors   []ValidationError   `json:"errors" yaml:"errors"`
	Warnings []ValidationWarning `json:"warnings" yaml:"warnings"`
	Score    float64             `json:"score" yaml:"score"`
	Metadata map[string]any      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
