package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docstruct/internal/builder"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/validate"
)

// Worker processes a single document job.
type Worker struct {
	builder    *builder.Builder
	validator  *validate.Validator
	stats      *stats.Processing
	log        *slog.Logger
	parserOpts parser.Options
}

func NewWorker(b *builder.Builder, v *validate.Validator, st *stats.Processing, log *slog.Logger, opts parser.Options) *Worker {
	return &Worker{
		builder:    b,
		validator:  v,
		stats:      st,
		log:        log,
		parserOpts: opts,
	}
}

// Process runs parse, build and validate for a job and stores the result on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	fail := func(phase, msg string) {
		job.AddError(msg)
		job.SetStatus(StatusFailed, phase)
		w.stats.Failed()
	}

	if err := ctx.Err(); err != nil {
		log.Warn("job cancelled before start", "error", err)
		fail("queued", err.Error())
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		fail("parsing", err.Error())
		return
	}

	phaseStart := time.Now()
	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		fail("parsing", fmt.Sprintf("parse: %s", err))
		return
	}
	w.stats.Observe(stats.StageParse, time.Since(phaseStart))
	if job.Title != "" {
		tree.Title = job.Title
		tree.Metadata.Title = job.Title
	}
	for _, e := range tree.Errors {
		log.Warn("extraction problem", "error", e)
	}

	if err := ctx.Err(); err != nil {
		fail("parsing", err.Error())
		return
	}

	// Phase 2: Build
	job.SetStatus(StatusBuilding, "building")
	phaseStart = time.Now()
	doc := w.builder.Build(tree)
	w.stats.Observe(stats.StageBuild, time.Since(phaseStart))
	log.Info("built structure",
		"chapters", len(doc.Chapters),
		"paragraphs", doc.TotalParagraphs,
		"words", doc.TotalWordCount,
		"confidence", doc.Confidence,
	)

	// Phase 3: Validate
	job.SetStatus(StatusValidating, "validating")
	phaseStart = time.Now()
	report := w.validator.Validate(doc)
	w.stats.Observe(stats.StageValidate, time.Since(phaseStart))
	log.Info("validation complete",
		"valid", report.IsValid,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"score", report.Score,
	)

	job.SetResult(doc, report)
	w.stats.Observe(stats.StageTotal, time.Since(start))
	w.stats.Completed(doc.TotalWordCount)
}
