package main

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/confidence"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/validate"
)

var (
	flagMinChapterWords int

	flagRemoveEmpty           bool
	flagRemoveEmptyParagraphs bool
	flagMerge                 []int
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the document structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := buildFile(args[0], config.Load())
		if err != nil {
			return err
		}
		return OutputTo(cmd.OutOrStdout(), OutputFormat(outputFormat), doc)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Run the validation rules and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		doc, err := buildFile(args[0], cfg)
		if err != nil {
			return err
		}
		report := validator(cmd, cfg).Validate(doc)
		log.Info("validated", "valid", report.IsValid, "errors", len(report.Errors), "warnings", len(report.Warnings))
		return OutputTo(cmd.OutOrStdout(), OutputFormat(outputFormat), report)
	},
}

var correctCmd = &cobra.Command{
	Use:   "correct <file>",
	Short: "Apply structural corrections and print the correction report",
	Long: `Correct validates the document, applies the selected corrections in order
(merges, then empty chapters, then empty paragraphs) and prints the corrected
structure with the issues that remain.

Examples:
  docstruct correct book.epub --remove-empty
  docstruct correct notes.md --merge 3 --merge 7 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		doc, err := buildFile(args[0], cfg)
		if err != nil {
			return err
		}
		report := validator(cmd, cfg).Validate(doc)

		out := validate.ApplyCorrections(doc, report, selectedCorrections(), confidence.Default)
		for _, o := range out.Outcomes {
			log.Info("correction", "id", o.CorrectionID, "status", o.Status, "detail", o.Detail)
		}
		return OutputTo(cmd.OutOrStdout(), OutputFormat(outputFormat), out)
	},
}

func init() {
	for _, c := range []*cobra.Command{validateCmd, correctCmd} {
		c.Flags().IntVar(&flagMinChapterWords, "min-chapter-words", 0, "override the short-chapter word floor")
	}

	correctCmd.Flags().BoolVar(&flagRemoveEmpty, "remove-empty", false, "remove empty chapters")
	correctCmd.Flags().BoolVar(&flagRemoveEmptyParagraphs, "remove-empty-paragraphs", false, "remove paragraphs without sentences")
	correctCmd.Flags().IntSliceVar(&flagMerge, "merge", nil, "merge chapter N, as numbered in the validate report, into the one before it (repeatable)")
}

func validator(cmd *cobra.Command, cfg config.Config) *validate.Validator {
	vc := cfg.ValidationConfig()
	if cmd.Flags().Changed("min-chapter-words") {
		vc.MinChapterWords = flagMinChapterWords
	}
	return validate.New(vc)
}

// selectedCorrections returns the corrections named by flags. Merge indices
// refer to the chapters as validated, so merges run first, from the highest
// index down, and removals after them.
func selectedCorrections() []validate.Correction {
	var out []validate.Correction
	merges := slices.Clone(flagMerge)
	slices.Sort(merges)
	for _, i := range slices.Backward(slices.Compact(merges)) {
		out = append(out, validate.MergeChapterIntoPrevious(i))
	}
	if flagRemoveEmpty {
		out = append(out, validate.RemoveEmptyChapters())
	}
	if flagRemoveEmptyParagraphs {
		out = append(out, validate.RemoveEmptyParagraphs())
	}
	return out
}
