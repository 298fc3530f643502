package app

import (
	"sync"
	"time"

	"github.com/LuisBackhaus/floorplan-engine/internal/pipeline"
)

// runStats aggregates pipeline outcomes over the daemon's lifetime.
type runStats struct {
	mu sync.Mutex

	TotalRuns       int64
	CompletedRuns   int64
	FailedRuns      int64
	RoomsDetected   int64
	ImagesGenerated int64
	LastRunAt       string
}

func (s *runStats) recordStart() {
	s.mu.Lock()
	s.TotalRuns++
	s.LastRunAt = time.Now().UTC().Format(time.RFC3339)
	s.mu.Unlock()
}

func (s *runStats) recordFinish(info pipeline.RunInfo) {
	s.mu.Lock()
	if info.State == string(pipeline.RunComplete) {
		s.CompletedRuns++
	} else {
		s.FailedRuns++
	}
	s.RoomsDetected += int64(info.Rooms)
	s.ImagesGenerated += int64(info.Images)
	s.mu.Unlock()
}

func (s *runStats) snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"total_runs":       s.TotalRuns,
		"completed_runs":   s.CompletedRuns,
		"failed_runs":      s.FailedRuns,
		"rooms_detected":   s.RoomsDetected,
		"images_generated": s.ImagesGenerated,
		"last_run_at":      s.LastRunAt,
	}
}
