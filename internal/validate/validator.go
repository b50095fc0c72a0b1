package validate

import (
	"maps"
	"time"

	"github.com/dgallion1/docstruct/internal/structure"
)

// Recommendation texts keyed to the issues that trigger them.
const (
	RecommendAddHeaders      = "Add chapter headers or section breaks so the document can be divided into chapters."
	RecommendMergeShort      = "Merge or remove short and empty chapters."
	RecommendSplitChapter    = "Split the single long chapter into several chapters."
	RecommendMergeSections   = "Merge sections: the document has an excessive number of chapters."
	RecommendManualReview    = "Review the document manually: structure detection confidence is very low."
	RecommendParagraphBreaks = "Check paragraph breaks: several paragraphs were detected with low confidence."
)

// RuleScore is the score one rule contributed to a report.
type RuleScore struct {
	Rule  string  `json:"rule" yaml:"rule"`
	Score float64 `json:"score" yaml:"score"`
}

// Report is the merged result of every rule plus derived status flags.
type Report struct {
	Result             `yaml:",inline"`
	HasTooManyWarnings bool        `json:"has_too_many_warnings" yaml:"has_too_many_warnings"`
	NeedsManualReview  bool        `json:"needs_manual_review" yaml:"needs_manual_review"`
	Recommendations    []string    `json:"recommendations" yaml:"recommendations"`
	RuleScores         []RuleScore `json:"rule_scores" yaml:"rule_scores"`
	ValidatedAt        time.Time   `json:"validated_at" yaml:"validated_at"`
}

// Validator runs an ordered rule set. Each Validator owns its registry, so
// validators with different custom rules can run concurrently.
type Validator struct {
	cfg   Config
	rules *Registry
	now   func() time.Time
}

// New returns a Validator preloaded with the built-in rules.
func New(cfg Config) *Validator {
	return &Validator{
		cfg:   cfg,
		rules: NewRegistry(Builtins(cfg)...),
		now:   time.Now,
	}
}

// Config returns the thresholds the validator was built with.
func (v *Validator) Config() Config { return v.cfg }

// Rules exposes the validator's registry for adding or removing custom rules.
func (v *Validator) Rules() *Registry { return v.rules }

// Validate runs every registered rule against doc and merges the results.
// doc is not modified.
func (v *Validator) Validate(doc *structure.DocumentStructure) Report {
	rules := v.rules.Rules()

	rep := Report{
		Result: Result{
			Errors:   []ValidationError{},
			Warnings: []ValidationWarning{},
		},
		RuleScores: make([]RuleScore, 0, len(rules)),
	}
	total := 0.0
	for _, rule := range rules {
		res := rule.Check(doc)
		rep.Errors = append(rep.Errors, res.Errors...)
		rep.Warnings = append(rep.Warnings, res.Warnings...)
		rep.RuleScores = append(rep.RuleScores, RuleScore{Rule: rule.Name(), Score: res.Score})
		total += res.Score
	}

	rep.IsValid = len(rep.Errors) == 0
	rep.Score = 1
	if len(rules) > 0 {
		rep.Score = total / float64(len(rules))
	}
	rep.Metadata = metadata(doc, len(rules))
	rep.HasTooManyWarnings = len(rep.Warnings) > v.cfg.MaxWarnings
	// No trigger is defined for manual review yet.
	rep.NeedsManualReview = false
	rep.Recommendations = v.recommendations(doc, rep.Result)
	rep.ValidatedAt = v.now()
	return rep
}

func metadata(doc *structure.DocumentStructure, rules int) map[string]any {
	meta := maps.Clone(doc.SourceStats)
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["chapter_count"] = len(doc.Chapters)
	meta["paragraph_count"] = doc.TotalParagraphs
	meta["sentence_count"] = doc.TotalSentences
	meta["word_count"] = doc.TotalWordCount
	meta["rule_count"] = rules
	return meta
}

func (v *Validator) recommendations(doc *structure.DocumentStructure, r Result) []string {
	codes := make(map[string]int)
	for _, e := range r.Errors {
		codes[e.Code]++
	}
	for _, w := range r.Warnings {
		codes[w.Code]++
	}

	recs := []string{}
	if codes[CodeNoChapters] > 0 {
		recs = append(recs, RecommendAddHeaders)
	}
	if codes[CodeShortChapter]+codes[CodeEmptyChapter] >= 2 {
		recs = append(recs, RecommendMergeShort)
	}
	if len(doc.Chapters) == 1 && doc.Chapters[0].WordCount > v.cfg.LongChapterWords {
		recs = append(recs, RecommendSplitChapter)
	}
	if len(doc.Chapters) > v.cfg.MaxChapterCount {
		recs = append(recs, RecommendMergeSections)
	}
	if codes[CodeLowOverallConfidence] > 0 {
		recs = append(recs, RecommendManualReview)
	}
	if codes[CodeLowParagraphConfidence] >= 2 {
		recs = append(recs, RecommendParagraphBreaks)
	}
	return recs
}
