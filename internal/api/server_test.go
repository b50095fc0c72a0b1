package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

const testKey = "test-key"

const sampleDoc = `# First

This opening chapter is here only to hold a few words.

# Empty

# Last

The closing chapter also carries a short sentence.
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.APIKey = testKey
	cfg.WorkerCount = 1
	cfg.MinChapterWords = 1

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func upload(t *testing.T, s *Server) string {
	t.Helper()
	body, ct := multipartBody(t, "file", map[string]string{"book.md": sampleDoc})
	rec := do(t, s, http.MethodPost, "/api/documents", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, rec, &resp)
	if resp.JobID == "" || !strings.HasSuffix(resp.PollURL, "/status") {
		t.Fatalf("unexpected upload response %s", rec.Body.String())
	}
	return resp.JobID
}

func waitCompleted(t *testing.T, s *Server, jobID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, s, http.MethodGet, "/api/documents/"+jobID+"/status", nil, "")
		var snap pipeline.JobSnapshot
		decode(t, rec, &snap)
		switch snap.Status {
		case pipeline.StatusCompleted:
			return
		case pipeline.StatusFailed:
			t.Fatalf("job failed: %v", snap.Progress.Errors)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not complete", jobID)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/processing", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)
	jobID := upload(t, s)
	waitCompleted(t, s, jobID)

	rec := do(t, s, http.MethodGet, "/api/documents/"+jobID+"/structure", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("structure: expected 200, got %d", rec.Code)
	}
	var doc struct {
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
		TotalWordCount int `json:"total_word_count"`
	}
	decode(t, rec, &doc)
	if len(doc.Chapters) != 3 || doc.TotalWordCount == 0 {
		t.Fatalf("unexpected structure %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/documents/"+jobID+"/validation", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validation: expected 200, got %d", rec.Code)
	}
	var report struct {
		IsValid  bool `json:"is_valid"`
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
	}
	decode(t, rec, &report)
	if !report.IsValid || len(report.Warnings) == 0 || report.Warnings[0].Code != "EMPTY_CHAPTER" {
		t.Errorf("expected valid report with EMPTY_CHAPTER warning, got %s", rec.Body.String())
	}

	body := strings.NewReader(`[{"type":"remove_empty_chapters"},{"type":"retitle_chapter","chapter":0,"title":"Opening"}]`)
	rec = do(t, s, http.MethodPost, "/api/documents/"+jobID+"/corrections", body, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("corrections: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var corrected struct {
		Structure struct {
			Chapters []struct {
				Title string `json:"title"`
			} `json:"chapters"`
		} `json:"structure"`
		Outcomes []struct {
			Status string `json:"status"`
		} `json:"outcomes"`
		RemainingIssues []any `json:"remaining_issues"`
	}
	decode(t, rec, &corrected)
	if len(corrected.Structure.Chapters) != 2 || corrected.Structure.Chapters[0].Title != "Opening" {
		t.Errorf("unexpected corrected structure %s", rec.Body.String())
	}
	if len(corrected.Outcomes) != 2 || corrected.Outcomes[0].Status != "applied" {
		t.Errorf("unexpected outcomes %+v", corrected.Outcomes)
	}

	// The stored structure is unchanged by corrections.
	rec = do(t, s, http.MethodGet, "/api/documents/"+jobID+"/structure", nil, "")
	decode(t, rec, &doc)
	if len(doc.Chapters) != 3 {
		t.Errorf("expected stored structure to keep 3 chapters, got %d", len(doc.Chapters))
	}

	rec = do(t, s, http.MethodGet, "/api/stats/processing", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"completed":1`) {
		t.Errorf("unexpected stats %d %s", rec.Code, rec.Body.String())
	}
}

func TestCorrections_BadRequests(t *testing.T) {
	s := newTestServer(t)
	jobID := upload(t, s)
	waitCompleted(t, s, jobID)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"empty list", "[]"},
		{"unknown type", `[{"type":"shuffle"}]`},
		{"merge without chapter", `[{"type":"merge_chapter"}]`},
		{"retitle without title", `[{"type":"retitle_chapter","chapter":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/documents/"+jobID+"/corrections", strings.NewReader(tt.body), "application/json")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpload_Rejects(t *testing.T) {
	s := newTestServer(t)

	body, ct := multipartBody(t, "file", map[string]string{"photo.png": "x"})
	if rec := do(t, s, http.MethodPost, "/api/documents", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}

	body, ct = multipartBody(t, "other", map[string]string{"a.md": "x"})
	if rec := do(t, s, http.MethodPost, "/api/documents", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without file field, got %d", rec.Code)
	}
}

func TestBatchUpload(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, "files", map[string]string{
		"a.md":  sampleDoc,
		"b.txt": "Some plain text.",
		"c.exe": "nope",
	})
	rec := do(t, s, http.MethodPost, "/api/documents/batch", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decode(t, rec, &resp)
	if len(resp.Jobs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(resp.Jobs))
	}
	var accepted, rejected int
	for _, j := range resp.Jobs {
		if _, ok := j["error"]; ok {
			rejected++
		} else {
			accepted++
		}
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("expected 2 accepted and 1 rejected, got %d/%d", accepted, rejected)
	}
}

func TestUnknownJob(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/status", "/structure", "/validation"} {
		rec := do(t, s, http.MethodGet, "/api/documents/missing"+path, nil, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"book.epub":          "book.epub",
		"../../etc/passwd":   "passwd",
		`C:\docs\report.pdf`: "report.pdf",
		"a..b.md":            "a_b.md",
		"":                   "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
