package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstruct/internal/builder"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/structure"
)

var (
	outputFormat string
	verbose      bool

	log = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "docstruct",
	Short: "Segment documents into chapters, paragraphs and sentences",
	Long: `docstruct parses EPUB, PDF, Markdown, HTML, DOCX, CSV and plain text files
into a Document → Chapter → Paragraph → Sentence hierarchy with source ranges,
word counts, duration estimates and a confidence score.

Usage:
  docstruct parse <file>
  docstruct validate <file>
  docstruct correct <file> --remove-empty`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log progress to stderr",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := parseOutputFormat(outputFormat); err != nil {
			return err
		}
		if verbose {
			log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		return nil
	}

	rootCmd.AddCommand(parseCmd, validateCmd, correctCmd)
}

// buildFile parses path with the adapter for its extension and builds the
// canonical structure.
func buildFile(path string, cfg config.Config) (*structure.DocumentStructure, error) {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	start := time.Now()
	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	log.Debug("parsed", "file", path, "sections", len(tree.Children), "duration_ms", time.Since(start).Milliseconds())
	for _, e := range tree.Errors {
		log.Warn("extraction problem", "file", path, "error", e)
	}

	b := builder.New()
	b.Concurrency = cfg.SegmentConcurrency
	doc := b.Build(tree)
	log.Debug("built",
		"chapters", len(doc.Chapters),
		"paragraphs", doc.TotalParagraphs,
		"sentences", doc.TotalSentences,
		"words", doc.TotalWordCount,
		"confidence", doc.Confidence,
	)
	return doc, nil
}
