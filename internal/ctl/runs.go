package ctl

import (
	"fmt"
	"strings"
	"time"
)

// RunInfo mirrors one entry of GET /api/runs.
type RunInfo struct {
	ID         string `json:"id"`
	Style      string `json:"style"`
	Filename   string `json:"filename"`
	State      string `json:"state"`
	Error      string `json:"error"`
	Rooms      int    `json:"rooms"`
	Images     int    `json:"images"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	DurationS  int    `json:"duration_s"`
}

// Runs lists the daemon's known pipeline runs, newest first.
func Runs(baseURL string, jsonOut bool) error {
	var body struct {
		Runs []RunInfo `json:"runs"`
	}
	if err := getJSON(baseURL, "/api/runs", &body); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(body)
	}

	fmt.Println()
	if len(body.Runs) == 0 {
		fmt.Println(colorize(dim, "  no runs"))
		fmt.Println()
		return nil
	}

	fmt.Printf("  %s  %s %s %s %s  %s\n",
		colorize(dim, padRight("RUN", 8)),
		colorize(dim, padRight("STATE", 9)),
		colorize(dim, padRight("ROOMS", 5)),
		colorize(dim, padRight("IMAGES", 6)),
		colorize(dim, padRight("TOOK", 6)),
		colorize(dim, "STYLE"),
	)
	for _, run := range body.Runs {
		took := "-"
		if run.DurationS > 0 {
			took = formatDuration(time.Duration(run.DurationS) * time.Second)
		}
		fmt.Printf("  %s  %s %s %s %s  %s\n",
			colorize(bold, padRight(run.ID, 8)),
			colorize(runStateColor(run.State), padRight(run.State, 9)),
			padRight(fmt.Sprintf("%d", run.Rooms), 5),
			padRight(fmt.Sprintf("%d", run.Images), 6),
			padRight(took, 6),
			run.Style,
		)
		if run.Error != "" {
			fmt.Printf("  %s %s\n", strings.Repeat(" ", 8), colorize(red, run.Error))
		}
	}
	fmt.Println()
	return nil
}
