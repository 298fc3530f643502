// Package stream carries pipeline output to live viewers. It defines the
// event envelope that every pipeline milestone is wrapped in, the in-process
// broadcast bus that fans envelopes out to subscribers, and the per-viewer
// session adapters that serialize envelopes onto Server-Sent Event and
// WebSocket connections.
package stream

import "time"

// EventType identifies the kind of pipeline event.
type EventType string

const (
	EventStatus           EventType = "status"
	EventRoomDetected     EventType = "room_detected"
	EventStyleDescription EventType = "style_description"
	EventUnfurnishedView  EventType = "unfurnished_view"
	EventFurnishedView    EventType = "furnished_view"
	EventInteriorShot     EventType = "interior_shot"
	EventFinalAssembly    EventType = "final_assembly"
	EventError            EventType = "error"
	EventConnected        EventType = "connected"
)

// Envelope is one typed, timestamped unit of streamed pipeline output.
// An envelope is never mutated after it has been handed to the bus.
//
// RunID identifies the pipeline run that produced the event, so a viewer
// following a specific upload can filter out events from concurrent runs.
// The synthetic "connected" acknowledgment has no run and leaves it empty.
type Envelope struct {
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data"`
	RunID     string         `json:"run_id,omitempty"`
	Timestamp float64        `json:"timestamp"`
}

// NewEnvelope stamps a payload with the current wall-clock time.
// The timestamp is Unix seconds with sub-second precision.
func NewEnvelope(runID string, t EventType, data map[string]any) Envelope {
	return Envelope{
		Type:      t,
		Data:      data,
		RunID:     runID,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}
}

// Typed payload shapes for each event type. These serve as documentation of
// the wire schema; the orchestrator broadcasts payloads as map[string]any.
type (
	// StatusData is a human-readable progress message.
	StatusData struct {
		Message string `json:"message"`
	}

	// RoomDetectedData announces one normalized room from detection.
	RoomDetectedData struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Dimensions string `json:"dimensions"`
	}

	// StyleDescriptionData carries the generated interior-style text.
	StyleDescriptionData struct {
		Description string `json:"description"`
	}

	// RoomImageData carries one generated render for a room, base64-encoded
	// PNG. Used by unfurnished_view, furnished_view, and interior_shot.
	RoomImageData struct {
		RoomID string `json:"roomId"`
		Image  string `json:"image"`
		Title  string `json:"title,omitempty"`
	}

	// FinalAssemblyData carries the assembled whole-property render.
	FinalAssemblyData struct {
		Image string `json:"image"`
		Title string `json:"title"`
	}

	// ErrorData reports the failure that terminated a run.
	ErrorData struct {
		Message string `json:"message"`
	}
)
