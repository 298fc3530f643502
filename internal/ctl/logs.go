package ctl

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// LogsOptions controls the logs command.
type LogsOptions struct {
	JSON  bool
	Type  string // filter by event type
	Run   string // filter by run id
	Limit int
}

// Logs shows the daemon's recent event history.
func Logs(baseURL string, opts LogsOptions) error {
	q := url.Values{}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Run != "" {
		q.Set("run", opts.Run)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/api/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var body struct {
		Logs []struct {
			TS      string `json:"ts"`
			Type    string `json:"type"`
			RunID   string `json:"run_id"`
			Message string `json:"message"`
		} `json:"logs"`
	}
	if err := getJSON(baseURL, path, &body); err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(body)
	}

	if len(body.Logs) == 0 {
		fmt.Println(colorize(dim, "  no events recorded"))
		return nil
	}
	for _, e := range body.Logs {
		ts := e.TS
		if t, err := time.Parse(time.RFC3339, e.TS); err == nil {
			ts = t.Local().Format("15:04:05")
		}
		run := ""
		if e.RunID != "" {
			run = colorize(dim, "["+e.RunID+"] ")
		}
		fmt.Printf("  %s %s  %s%s\n",
			colorize(dim, ts),
			colorize(eventColor(e.Type), padRight(e.Type, 17)),
			run,
			e.Message,
		)
	}
	return nil
}
