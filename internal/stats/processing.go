package stats

import (
	"sync"
	"time"
)

// Pipeline stages with their own latency series.
const (
	StageParse    = "parse"
	StageBuild    = "build"
	StageValidate = "validate"
	StageTotal    = "total"
)

var stages = []string{StageParse, StageBuild, StageValidate, StageTotal}

// Processing aggregates per-stage latencies and job outcome counters.
type Processing struct {
	latency map[string]*Latency

	mu        sync.Mutex
	completed int
	failed    int
	words     int
}

// ProcessingSnapshot is what GET /api/stats/processing returns.
type ProcessingSnapshot struct {
	Completed int                 `json:"completed"`
	Failed    int                 `json:"failed"`
	Words     int                 `json:"words_processed"`
	Stages    map[string]Snapshot `json:"stages"`
}

func NewProcessing(window time.Duration) *Processing {
	p := &Processing{latency: make(map[string]*Latency, len(stages))}
	for _, s := range stages {
		p.latency[s] = NewLatency(window)
	}
	return p
}

// Observe records a stage duration. Unknown stages are ignored.
func (p *Processing) Observe(stage string, d time.Duration) {
	if l, ok := p.latency[stage]; ok {
		l.Record(d)
	}
}

// Completed counts a finished job and the words it produced.
func (p *Processing) Completed(words int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	p.words += words
}

func (p *Processing) Failed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
}

func (p *Processing) Snapshot() ProcessingSnapshot {
	p.mu.Lock()
	snap := ProcessingSnapshot{
		Completed: p.completed,
		Failed:    p.failed,
		Words:     p.words,
		Stages:    make(map[string]Snapshot, len(p.latency)),
	}
	p.mu.Unlock()

	for name, l := range p.latency {
		snap.Stages[name] = l.Snapshot()
	}
	return snap
}
