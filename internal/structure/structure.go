// Package structure holds the canonical Document → Chapter → Paragraph → Sentence model.
package structure

import (
	"time"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// Range is a [Start, End) byte span in the original source text.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns End - Start.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether o lies entirely inside r.
func (r Range) Contains(o Range) bool {
	return o.Start >= r.Start && o.End <= r.End
}

// ContentKind classifies a paragraph.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindCode     ContentKind = "code"
	KindListItem ContentKind = "list_item"
	KindQuote    ContentKind = "quote"
	KindHeading  ContentKind = "heading"
	KindTable    ContentKind = "table"
)

// Sentence is the smallest tracked text unit.
type Sentence struct {
	ID                  string  `json:"id" yaml:"id"`
	Text                string  `json:"text" yaml:"text"`
	Position            int     `json:"position" yaml:"position"`
	Range               Range   `json:"range" yaml:"range"`
	WordCount           int     `json:"word_count" yaml:"word_count"`
	EstimatedDuration   float64 `json:"estimated_duration" yaml:"estimated_duration"`
	HasInlineFormatting bool    `json:"has_inline_formatting" yaml:"has_inline_formatting"`
}

// Paragraph is a contiguous content block inside a chapter.
type Paragraph struct {
	ID                 string      `json:"id" yaml:"id"`
	Kind               ContentKind `json:"kind" yaml:"kind"`
	Sentences          []Sentence  `json:"sentences" yaml:"sentences"`
	Position           int         `json:"position" yaml:"position"`
	Range              Range       `json:"range" yaml:"range"`
	WordCount          int         `json:"word_count" yaml:"word_count"`
	EstimatedDuration  float64     `json:"estimated_duration" yaml:"estimated_duration"`
	RawText            string      `json:"raw_text" yaml:"raw_text"`
	Confidence         float64     `json:"confidence" yaml:"confidence"`
	IncludeInNarration bool        `json:"include_in_narration" yaml:"include_in_narration"`
}

// Chapter is a top-level structural unit.
type Chapter struct {
	ID                string      `json:"id" yaml:"id"`
	Title             string      `json:"title" yaml:"title"`
	Level             int         `json:"level" yaml:"level"`
	Depth             int         `json:"depth" yaml:"depth"`
	Paragraphs        []Paragraph `json:"paragraphs" yaml:"paragraphs"`
	Position          int         `json:"position" yaml:"position"`
	Range             Range       `json:"range" yaml:"range"`
	WordCount         int         `json:"word_count" yaml:"word_count"`
	EstimatedDuration float64     `json:"estimated_duration" yaml:"estimated_duration"`
	Confidence        *float64    `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// TOCEntry is one table-of-contents line pointing at a chapter.
type TOCEntry struct {
	Title        string `json:"title" yaml:"title"`
	Level        int    `json:"level" yaml:"level"`
	ChapterIndex int    `json:"chapter_index" yaml:"chapter_index"`
}

// ProcessingMetrics records how the structure was produced.
type ProcessingMetrics struct {
	ParseStartTime   time.Time `json:"parse_start_time" yaml:"parse_start_time"`
	ParseEndTime     time.Time `json:"parse_end_time" yaml:"parse_end_time"`
	ParseDurationMs  int64     `json:"parse_duration_ms" yaml:"parse_duration_ms"`
	SourceLength     int       `json:"source_length" yaml:"source_length"`
	ProcessingErrors []string  `json:"processing_errors" yaml:"processing_errors"`
}

// DocumentStructure is the normalized result of one segmentation pass.
type DocumentStructure struct {
	Metadata          doctree.Metadata  `json:"metadata" yaml:"metadata"`
	Chapters          []Chapter         `json:"chapters" yaml:"chapters"`
	TableOfContents   []TOCEntry        `json:"table_of_contents" yaml:"table_of_contents"`
	TotalParagraphs   int               `json:"total_paragraphs" yaml:"total_paragraphs"`
	TotalSentences    int               `json:"total_sentences" yaml:"total_sentences"`
	TotalWordCount    int               `json:"total_word_count" yaml:"total_word_count"`
	EstimatedDuration float64           `json:"estimated_duration" yaml:"estimated_duration"`
	Confidence        float64           `json:"confidence" yaml:"confidence"`
	Metrics           ProcessingMetrics `json:"metrics" yaml:"metrics"`
	SourceStats       map[string]any    `json:"source_stats,omitempty" yaml:"source_stats,omitempty"`
}
