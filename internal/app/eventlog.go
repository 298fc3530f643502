package app

import (
	"sync"
	"time"

	"github.com/LuisBackhaus/floorplan-engine/internal/stream"
)

// logEntry is one recorded bus event, with large payloads (base64 images)
// reduced to a short human-readable summary.
type logEntry struct {
	TS      string `json:"ts"`
	Type    string `json:"type"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message"`
}

// eventLog is a fixed-size ring of recent bus events, serving GET /api/logs.
type eventLog struct {
	mu      sync.Mutex
	entries []logEntry
	max     int
}

func newEventLog(max int) *eventLog {
	return &eventLog{max: max}
}

func (l *eventLog) add(env stream.Envelope) {
	sec := int64(env.Timestamp)
	nsec := int64((env.Timestamp - float64(sec)) * 1e9)
	entry := logEntry{
		TS:      time.Unix(sec, nsec).UTC().Format(time.RFC3339),
		Type:    string(env.Type),
		RunID:   env.RunID,
		Message: summarize(env),
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]logEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// summarize renders an envelope as one line, without embedding image data.
func summarize(env stream.Envelope) string {
	str := func(key string) string {
		s, _ := env.Data[key].(string)
		return s
	}

	switch env.Type {
	case stream.EventStatus, stream.EventError, stream.EventConnected:
		return str("message")
	case stream.EventRoomDetected:
		return str("name") + " (" + str("dimensions") + ")"
	case stream.EventStyleDescription:
		return truncate(str("description"), 120)
	case stream.EventUnfurnishedView:
		return "render for room " + str("roomId")
	case stream.EventFurnishedView, stream.EventInteriorShot:
		return str("title")
	case stream.EventFinalAssembly:
		return str("title")
	default:
		return string(env.Type)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
