// Package confidence computes a document-level reliability score from
// structural metrics. Score is a pure function of its input.
package confidence

// Thresholds and floors of the policy cascade.
const (
	SingleCharacterFloor             = 0.1
	MinimalWordThreshold             = 10
	ExtremelyMinimalStructureFloor   = 0.2
	ExtremelyMinimalFloor            = 0.3
	NoStructureFloor                 = 0.4
	MinimalStructureContentThreshold = 50
	StructureThreshold               = 1000
	StructureWordThreshold           = 2
	GoodStructureFloor               = 0.8
	ReasonableContentThreshold       = 200
	ReasonableContentFloor           = 0.6
	NormalContentFloor               = 0.5

	// ElementBonus is added once for two or more distinct element kinds.
	ElementBonus = 0.1
	// ManyElementsThreshold total elements earn another half bonus.
	ManyElementsThreshold = 3
)

// Elements counts structural elements found in a document.
type Elements struct {
	Tables     int `json:"tables" yaml:"tables"`
	CodeBlocks int `json:"code_blocks" yaml:"code_blocks"`
	Lists      int `json:"lists" yaml:"lists"`
	Quotes     int `json:"quotes" yaml:"quotes"`
	Links      int `json:"links" yaml:"links"`
	Images     int `json:"images" yaml:"images"`
}

func (e Elements) counts() [6]int {
	return [6]int{e.Tables, e.CodeBlocks, e.Lists, e.Quotes, e.Links, e.Images}
}

// Distinct returns the number of element kinds with a non-zero count.
func (e Elements) Distinct() int {
	n := 0
	for _, c := range e.counts() {
		if c > 0 {
			n++
		}
	}
	return n
}

// Total returns the number of elements of any kind.
func (e Elements) Total() int {
	n := 0
	for _, c := range e.counts() {
		n += c
	}
	return n
}

// Add returns the element-wise sum of e and o.
func (e Elements) Add(o Elements) Elements {
	return Elements{
		Tables:     e.Tables + o.Tables,
		CodeBlocks: e.CodeBlocks + o.CodeBlocks,
		Lists:      e.Lists + o.Lists,
		Quotes:     e.Quotes + o.Quotes,
		Links:      e.Links + o.Links,
		Images:     e.Images + o.Images,
	}
}

// Metrics is the scorer input.
type Metrics struct {
	WordCount       int
	ChapterCount    int
	TotalParagraphs int
	Current         float64 // confidence accumulated before scoring
	Elements        Elements
}

// Policy is one entry of the cascade. Value is only called when Match is true.
type Policy struct {
	Name  string
	Match func(Metrics) bool
	Value func(Metrics) float64
}

func fixed(v float64) func(Metrics) float64 {
	return func(Metrics) float64 { return v }
}

// Policies is evaluated top to bottom; the first match supplies the base value.
var Policies = []Policy{
	{
		Name:  "single_character",
		Match: func(m Metrics) bool { return m.WordCount == 1 },
		Value: fixed(SingleCharacterFloor),
	},
	{
		Name: "extremely_minimal_no_structure",
		Match: func(m Metrics) bool {
			return m.WordCount <= MinimalWordThreshold && m.ChapterCount == 0 && m.TotalParagraphs == 0
		},
		Value: func(m Metrics) float64 { return min(m.Current, ExtremelyMinimalStructureFloor) },
	},
	{
		Name:  "extremely_minimal",
		Match: func(m Metrics) bool { return m.WordCount <= MinimalWordThreshold },
		Value: fixed(ExtremelyMinimalFloor),
	},
	{
		Name:  "no_structure",
		Match: func(m Metrics) bool { return m.ChapterCount == 0 && m.TotalParagraphs <= 1 },
		Value: func(m Metrics) float64 { return max(m.Current, NoStructureFloor) },
	},
	{
		Name: "minimal_structure",
		Match: func(m Metrics) bool {
			return m.ChapterCount == 1 && m.TotalParagraphs == 1 && m.WordCount < MinimalStructureContentThreshold
		},
		Value: func(m Metrics) float64 { return max(m.Current, NoStructureFloor) },
	},
	{
		Name: "good_structure",
		Match: func(m Metrics) bool {
			return (m.WordCount >= StructureThreshold && m.ChapterCount > StructureWordThreshold) ||
				m.ChapterCount >= StructureWordThreshold+1
		},
		Value: func(m Metrics) float64 { return max(m.Current, GoodStructureFloor) },
	},
	{
		Name:  "reasonable_content",
		Match: func(m Metrics) bool { return m.WordCount >= ReasonableContentThreshold },
		Value: func(m Metrics) float64 { return max(m.Current, ReasonableContentFloor) },
	},
}

// DefaultPolicy names the fallback when no policy matches.
const DefaultPolicy = "normal_content"

// Base returns the cascade value and the name of the policy that produced it.
func Base(m Metrics) (float64, string) {
	for _, p := range Policies {
		if p.Match(m) {
			return p.Value(m), p.Name
		}
	}
	return NormalContentFloor, DefaultPolicy
}

// Bonus returns the additive element bonus for e.
func Bonus(e Elements) float64 {
	bonus := 0.0
	switch distinct := e.Distinct(); {
	case distinct >= 2:
		bonus += ElementBonus
	case distinct == 1:
		bonus += ElementBonus / 2
	}
	if e.Total() >= ManyElementsThreshold {
		bonus += ElementBonus / 2
	}
	return bonus
}

// Score is Base plus Bonus. The result is not clamped.
func Score(m Metrics) float64 {
	base, _ := Base(m)
	return base + Bonus(m.Elements)
}

// Clamp limits v to [0, 1].
func Clamp(v float64) float64 {
	return min(1, max(0, v))
}

// Scorer lets callers swap in a different scoring function.
type Scorer interface {
	Score(Metrics) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(Metrics) float64

func (f ScorerFunc) Score(m Metrics) float64 { return f(m) }

// Default is the cascade scorer.
var Default Scorer = ScorerFunc(Score)
