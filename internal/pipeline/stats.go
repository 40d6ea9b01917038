package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lepinkainen/openshelf/internal/fileutil"
)

// Stats summarises one run.
type Stats struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Duration   string    `yaml:"duration"`

	Total         int `yaml:"total"`
	AlreadyStored int `yaml:"already_stored"`
	Repeated      int `yaml:"repeated"`
	CacheHits     int `yaml:"cache_hits"`
	Resolved      int `yaml:"resolved"`
	NotFound      int `yaml:"not_found"`
	Inserted      int `yaml:"inserted"`
	Skipped       int `yaml:"skipped"`
	Failed        int `yaml:"failed"`
}

// NewStats starts the clock for a run over total rows.
func NewStats(total int) Stats {
	return Stats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Total:     total,
	}
}

// Finish stamps the end time.
func (s *Stats) Finish() {
	s.FinishedAt = time.Now().UTC()
	s.Duration = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
}

// WriteReport writes stats to path as YAML, replacing any earlier report.
func WriteReport(path string, stats Stats) error {
	if _, err := fileutil.WriteYAMLFile(stats, path, true); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
