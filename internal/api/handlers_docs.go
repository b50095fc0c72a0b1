package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/validate"
)

// jobResult resolves the job in the URL and writes the error response when
// it has no result yet.
func (s *Server) jobResult(w http.ResponseWriter, r *http.Request) (*pipeline.Job, *pipeline.Result, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, nil, false
	}
	res, err := job.Result()
	switch {
	case errors.Is(err, pipeline.ErrJobFailed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"status": job.Snapshot(),
		})
		return nil, nil, false
	case err != nil:
		jsonError(w, err.Error(), http.StatusConflict)
		return nil, nil, false
	}
	return job, res, true
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.jobResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Structure)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.jobResult(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

// correctionRequest is one entry of the corrections body.
type correctionRequest struct {
	Type    validate.CorrectionType `json:"type"`
	Chapter *int                    `json:"chapter,omitempty"`
	Title   string                  `json:"title,omitempty"`
}

func (c correctionRequest) correction() (validate.Correction, error) {
	switch c.Type {
	case validate.CorrectRemoveEmptyChapters:
		return validate.RemoveEmptyChapters(), nil
	case validate.CorrectRemoveEmptyParagraphs:
		return validate.RemoveEmptyParagraphs(), nil
	case validate.CorrectMergeChapter:
		if c.Chapter == nil {
			return validate.Correction{}, fmt.Errorf("%s requires chapter", c.Type)
		}
		return validate.MergeChapterIntoPrevious(*c.Chapter), nil
	case validate.CorrectRetitleChapter:
		if c.Chapter == nil || c.Title == "" {
			return validate.Correction{}, fmt.Errorf("%s requires chapter and title", c.Type)
		}
		return validate.RetitleChapter(*c.Chapter, c.Title), nil
	}
	return validate.Correction{}, fmt.Errorf("unknown correction type %q", c.Type)
}

func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	job, _, ok := s.jobResult(w, r)
	if !ok {
		return
	}

	var reqs []correctionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&reqs); err != nil {
		jsonError(w, "invalid corrections body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(reqs) == 0 {
		jsonError(w, "at least one correction is required", http.StatusBadRequest)
		return
	}

	corrections := make([]validate.Correction, 0, len(reqs))
	for i, req := range reqs {
		c, err := req.correction()
		if err != nil {
			jsonError(w, fmt.Sprintf("correction %d: %s", i, err), http.StatusBadRequest)
			return
		}
		corrections = append(corrections, c)
	}

	rep, err := job.ApplyCorrections(corrections, s.orchestrator.Scorer())
	if err != nil {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	s.log.Info("applied corrections",
		"job_id", job.ID,
		"applied", len(rep.Applied),
		"requested", len(corrections),
		"confidence", rep.CorrectedConfidence,
	)
	writeJSON(w, http.StatusOK, rep)
}
