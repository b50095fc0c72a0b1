package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/docstruct/internal/config"
)

func testConfig() config.Config {
	cfg := config.Load()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 10
	return cfg
}

func waitFor(t *testing.T, job *Job, want JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach %s, last status %s", job.ID, want, job.Snapshot().Status)
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	o := NewOrchestrator(testConfig(), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	jobs := []*Job{
		NewJob("a.md", "", []byte(sampleMarkdown)),
		NewJob("b.txt", "", []byte("Chapter 1\n\nPlain text body here.\n")),
	}
	for _, j := range jobs {
		if err := o.Submit(j); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	for _, j := range jobs {
		waitFor(t, j, StatusCompleted)
		if o.GetJob(j.ID) != j {
			t.Errorf("expected job %s in store", j.ID)
		}
	}
	if got := o.Stats().Snapshot().Completed; got != 2 {
		t.Errorf("expected 2 completed, got %d", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o := NewOrchestrator(cfg, testLogger())

	if err := o.Submit(NewJob("a.md", "", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.md", "", nil)
	if err := o.Submit(second); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job marked failed, got %s", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_ValidatorSharedAcrossWorkers(t *testing.T) {
	o := NewOrchestrator(testConfig(), testLogger())
	if o.Validator() == nil || o.Scorer() == nil {
		t.Fatal("expected validator and scorer")
	}
	names := o.Validator().Rules().Names()
	if len(names) != 4 {
		t.Errorf("expected 4 built-in rules, got %v", names)
	}
}
