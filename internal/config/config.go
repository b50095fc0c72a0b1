package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docstruct/internal/validate"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	SegmentConcurrency int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL      time.Duration
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Validation thresholds
	MinChapterWords        int
	MinParagraphConfidence float64
	MinSentenceLength      int
	MaxSentenceLength      int
	CriticalConfidence     float64
	WarningConfidence      float64
	MaxWarnings            int
}

func Load() Config {
	def := validate.DefaultConfig()
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCSTRUCT_API_KEY"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		SegmentConcurrency: envInt("SEGMENT_CONCURRENCY", 8),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		MinChapterWords:        envInt("MIN_CHAPTER_WORDS", def.MinChapterWords),
		MinParagraphConfidence: envFloat("MIN_PARAGRAPH_CONFIDENCE", def.MinParagraphConfidence),
		MinSentenceLength:      envInt("MIN_SENTENCE_LENGTH", def.MinSentenceLength),
		MaxSentenceLength:      envInt("MAX_SENTENCE_LENGTH", def.MaxSentenceLength),
		CriticalConfidence:     envFloat("CRITICAL_CONFIDENCE", def.CriticalConfidence),
		WarningConfidence:      envFloat("WARNING_CONFIDENCE", def.WarningConfidence),
		MaxWarnings:            envInt("MAX_WARNINGS", def.MaxWarnings),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.SegmentConcurrency <= 0 {
		cfg.SegmentConcurrency = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.MaxSentenceLength <= 0 {
		cfg.MaxSentenceLength = def.MaxSentenceLength
	}
	if cfg.MaxWarnings < 0 {
		cfg.MaxWarnings = def.MaxWarnings
	}

	return cfg
}

// Validate checks settings the server cannot start without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSTRUCT_API_KEY is required")
	}
	if c.MinSentenceLength > c.MaxSentenceLength {
		return fmt.Errorf("MIN_SENTENCE_LENGTH (%d) exceeds MAX_SENTENCE_LENGTH (%d)", c.MinSentenceLength, c.MaxSentenceLength)
	}
	if c.CriticalConfidence > c.WarningConfidence {
		return fmt.Errorf("CRITICAL_CONFIDENCE (%v) exceeds WARNING_CONFIDENCE (%v)", c.CriticalConfidence, c.WarningConfidence)
	}
	return nil
}

// ValidationConfig returns the rule thresholds, keeping the stock weights.
func (c Config) ValidationConfig() validate.Config {
	v := validate.DefaultConfig()
	v.MinChapterWords = c.MinChapterWords
	v.MinParagraphConfidence = c.MinParagraphConfidence
	v.MinSentenceLength = c.MinSentenceLength
	v.MaxSentenceLength = c.MaxSentenceLength
	v.CriticalConfidence = c.CriticalConfidence
	v.WarningConfidence = c.WarningConfidence
	v.MaxWarnings = c.MaxWarnings
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
