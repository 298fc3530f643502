package ctl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// WatchOptions controls the watch command behavior.
type WatchOptions struct {
	Filter []string // event types to show (empty = all)
	Run    string   // only show events from this run
	JSON   bool     // output raw JSON per event
	WS     bool     // use the WebSocket transport instead of SSE
}

// Watch connects to the daemon's event stream and renders envelopes to the
// terminal until interrupted. The default transport is SSE; --ws switches
// to the WebSocket endpoint, which carries the same envelopes.
func Watch(baseURL string, opts WatchOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filterSet := make(map[string]bool, len(opts.Filter))
	for _, f := range opts.Filter {
		filterSet[f] = true
	}

	show := func(raw []byte) {
		var env struct {
			Type      string         `json:"type"`
			Data      map[string]any `json:"data"`
			RunID     string         `json:"run_id"`
			Timestamp float64        `json:"timestamp"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			fmt.Printf("  %s\n", string(raw))
			return
		}
		if len(filterSet) > 0 && !filterSet[env.Type] {
			return
		}
		if opts.JSON {
			fmt.Println(string(raw))
			return
		}
		renderEvent(env.Type, env.RunID, env.Timestamp, env.Data)
	}

	if opts.WS {
		return watchWS(ctx, baseURL, opts.Run, show)
	}
	return watchSSE(ctx, baseURL, opts.Run, show)
}

// watchSSE consumes the text/event-stream endpoint line by line.
func watchSSE(ctx context.Context, baseURL, run string, show func([]byte)) error {
	streamURL := strings.TrimRight(baseURL, "/") + "/stream"
	if run != "" {
		streamURL += "?run=" + url.QueryEscape(run)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}

	// Streaming connection: no client timeout.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned HTTP %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024) // generated images are large
	for scanner.Scan() {
		line := scanner.Text()
		payload, found := strings.CutPrefix(line, "data: ")
		if !found {
			continue
		}
		show([]byte(payload))
	}
	if ctx.Err() != nil {
		return nil // interrupted by the user
	}
	return scanner.Err()
}

// watchWS consumes the WebSocket endpoint.
func watchWS(ctx context.Context, baseURL, run string, show func([]byte)) error {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	if run != "" {
		u.RawQuery = "run=" + url.QueryEscape(run)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			show(msg)
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// renderEvent prints one envelope in a human-friendly single-line (mostly)
// format. Image payloads are reduced to their decoded size.
func renderEvent(evType, runID string, timestamp float64, data map[string]any) {
	ts := formatEventTime(timestamp)
	run := ""
	if runID != "" {
		run = colorize(dim, "["+runID+"] ")
	}
	str := func(key string) string {
		s, _ := data[key].(string)
		return s
	}

	switch evType {
	case "connected":
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), colorize(green, "connected"), str("message"))

	case "status":
		fmt.Printf("  %s %s  %s%s\n", colorize(dim, ts), colorize(cyan, padRight("status", 17)), run, str("message"))

	case "room_detected":
		fmt.Printf("  %s %s  %s%s %s %s\n",
			colorize(dim, ts),
			colorize(blue, padRight("room_detected", 17)),
			run,
			colorize(bold, str("name")),
			colorize(dim, str("dimensions")),
			colorize(dim, "id="+str("id")),
		)

	case "style_description":
		desc := str("description")
		fmt.Println()
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), header("STYLE"), run)
		for _, line := range wrapText(desc, 72) {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()

	case "unfurnished_view", "furnished_view", "interior_shot", "final_assembly":
		title := str("title")
		if title == "" {
			title = "room " + str("roomId")
		}
		fmt.Printf("  %s %s  %s%s %s\n",
			colorize(dim, ts),
			colorize(magenta, padRight(evType, 17)),
			run,
			title,
			colorize(dim, "("+formatBytes(imageSize(str("image")))+")"),
		)

	case "error":
		fmt.Printf("  %s %s  %s%s\n", colorize(dim, ts), colorize(red, padRight("ERROR", 17)), run, str("message"))

	default:
		pretty, err := json.MarshalIndent(data, "  ", "  ")
		if err != nil {
			return
		}
		fmt.Printf("  %s %s  %s\n", colorize(dim, ts), evType, string(pretty))
	}
}

// eventColor picks a color per event type for compact listings.
func eventColor(evType string) string {
	if !colorEnabled() {
		return ""
	}
	switch evType {
	case "status", "connected":
		return cyan
	case "room_detected":
		return blue
	case "error":
		return red
	case "style_description":
		return yellow
	default:
		return magenta
	}
}

// imageSize estimates the decoded byte size of a base64 payload.
func imageSize(b64 string) int {
	return len(b64) / 4 * 3
}

func formatEventTime(timestamp float64) string {
	if timestamp == 0 {
		return "        "
	}
	sec := int64(timestamp)
	nsec := int64((timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).Local().Format("15:04:05")
}

// wrapText naively wraps s at word boundaries for terminal display.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	var lines []string
	var cur string
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		if len(cur)+1+len(w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
