package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	UploadsDir    string `json:"uploads_dir"`
	Mode          string `json:"mode"`
	ActiveRuns    int    `json:"active_runs"`
	Viewers       int    `json:"viewers"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOut bool) error {
	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)

	fmt.Println()
	fmt.Println(header("  FLOORPLAN ENGINE STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-14s %s\n", colorize(dim, "State:"), colorize(stateColor(s.State), s.State))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Mode:"), s.Mode)
	fmt.Printf("  %-14s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-14s %d\n", colorize(dim, "Active runs:"), s.ActiveRuns)
	fmt.Printf("  %-14s %d\n", colorize(dim, "Viewers:"), s.Viewers)
	fmt.Printf("  %-14s %s\n", colorize(dim, "Uploads:"), s.UploadsDir)
	fmt.Printf("  %-14s %s\n", colorize(dim, "Host:"), strings.TrimRight(baseURL, "/"))
	fmt.Println()

	return nil
}
