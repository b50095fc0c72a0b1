package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const sampleBook = `# Opening

The opening chapter has a handful of words in a sentence.

# Blank

# Closing

The closing chapter ends the book with another sentence.
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.md")
	if err := os.WriteFile(path, []byte(sampleBook), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputFormat, verbose = "yaml", false
	flagMinChapterWords, flagRemoveEmpty, flagRemoveEmptyParagraphs, flagMerge = 0, false, false, nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParse_JSON(t *testing.T) {
	out, err := run(t, "parse", writeSample(t), "-o", "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var doc struct {
		Metadata struct {
			Title string `json:"title"`
		} `json:"metadata"`
		Chapters []json.RawMessage `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if doc.Metadata.Title != "Opening" || len(doc.Chapters) != 3 {
		t.Errorf("unexpected document: title %q, %d chapters", doc.Metadata.Title, len(doc.Chapters))
	}
}

func TestValidate_YAML(t *testing.T) {
	out, err := run(t, "validate", writeSample(t), "--min-chapter-words", "1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var report struct {
		IsValid  bool `yaml:"is_valid"`
		Warnings []struct {
			Code string `yaml:"code"`
		} `yaml:"warnings"`
	}
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !report.IsValid {
		t.Error("expected valid report")
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Code != "EMPTY_CHAPTER" {
		t.Errorf("expected a single EMPTY_CHAPTER warning, got %+v", report.Warnings)
	}
}

func TestCorrect_RemoveEmpty(t *testing.T) {
	out, err := run(t, "correct", writeSample(t), "--remove-empty", "--min-chapter-words", "1", "-o", "json")
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	var rep struct {
		Structure struct {
			Chapters []json.RawMessage `json:"chapters"`
		} `json:"structure"`
		RemainingIssues []json.RawMessage `json:"remaining_issues"`
		Original        float64           `json:"original_confidence"`
		Corrected       float64           `json:"corrected_confidence"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rep.Structure.Chapters) != 2 {
		t.Errorf("expected 2 chapters after correction, got %d", len(rep.Structure.Chapters))
	}
	if len(rep.RemainingIssues) != 0 {
		t.Errorf("expected no remaining issues, got %d", len(rep.RemainingIssues))
	}
	if rep.Corrected == rep.Original || rep.Corrected < 0 || rep.Corrected > 1 {
		t.Errorf("expected recomputed confidence in range, got %v (original %v)", rep.Corrected, rep.Original)
	}
}

func TestCorrect_MergeUsesValidatedIndex(t *testing.T) {
	// Chapter 2 is "Closing" in the validate report; removing "Blank" first
	// would leave no chapter 2 to merge.
	out, err := run(t, "correct", writeSample(t), "--remove-empty", "--merge", "2", "-o", "json")
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	var rep struct {
		Structure struct {
			Chapters []struct {
				Title string `json:"title"`
			} `json:"chapters"`
		} `json:"structure"`
		Outcomes []struct {
			ID     string `json:"correction_id"`
			Status string `json:"status"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rep.Outcomes) != 2 || rep.Outcomes[0].ID != "merge_chapter:2" {
		t.Fatalf("expected merge then removal, got %+v", rep.Outcomes)
	}
	for _, o := range rep.Outcomes {
		if o.Status != "applied" {
			t.Errorf("expected %s applied, got %s", o.ID, o.Status)
		}
	}
	var titles []string
	for _, ch := range rep.Structure.Chapters {
		titles = append(titles, ch.Title)
	}
	if strings.Join(titles, ",") != "Opening,Blank" {
		t.Errorf("expected chapters Opening,Blank, got %v", titles)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unsupported", []string{"parse", "image.png"}, "unsupported"},
		{"missing file", []string{"parse", filepath.Join(t.TempDir(), "gone.md")}, "open"},
		{"bad format", []string{"parse", "x.md", "-o", "xml"}, "unknown output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSelectedCorrections_MergeOrder(t *testing.T) {
	flagRemoveEmpty, flagRemoveEmptyParagraphs = true, false
	flagMerge = []int{2, 5, 3, 5}
	t.Cleanup(func() { flagRemoveEmpty, flagMerge = false, nil })

	got := selectedCorrections()
	want := []string{"merge_chapter:5", "merge_chapter:3", "merge_chapter:2", "remove_empty_chapters"}
	if len(got) != len(want) {
		t.Fatalf("expected %d corrections, got %d", len(want), len(got))
	}
	for i, c := range got {
		if c.ID != want[i] {
			t.Errorf("correction %d: expected %s, got %s", i, want[i], c.ID)
		}
	}
}
