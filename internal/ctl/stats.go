package ctl

import (
	"fmt"
	"time"
)

// Stats prints aggregate pipeline statistics.
func Stats(baseURL string, jsonOut bool) error {
	var s struct {
		TotalRuns       int64  `json:"total_runs"`
		CompletedRuns   int64  `json:"completed_runs"`
		FailedRuns      int64  `json:"failed_runs"`
		RoomsDetected   int64  `json:"rooms_detected"`
		ImagesGenerated int64  `json:"images_generated"`
		LastRunAt       string `json:"last_run_at"`
		UptimeSeconds   int64  `json:"uptime_seconds"`
	}
	if err := getJSON(baseURL, "/api/stats", &s); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(s)
	}

	lastRun := s.LastRunAt
	if lastRun == "" {
		lastRun = "never"
	}

	fmt.Println()
	fmt.Printf("  %-18s %d (%d complete, %d failed)\n",
		colorize(dim, "Runs:"), s.TotalRuns, s.CompletedRuns, s.FailedRuns)
	fmt.Printf("  %-18s %d\n", colorize(dim, "Rooms detected:"), s.RoomsDetected)
	fmt.Printf("  %-18s %d\n", colorize(dim, "Images generated:"), s.ImagesGenerated)
	fmt.Printf("  %-18s %s\n", colorize(dim, "Last run:"), lastRun)
	fmt.Printf("  %-18s %s\n", colorize(dim, "Uptime:"), formatDuration(time.Duration(s.UptimeSeconds)*time.Second))
	fmt.Println()
	return nil
}
