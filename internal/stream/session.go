package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEHandler returns an http.Handler that streams bus envelopes to the
// client as Server-Sent Events. Each event is one line of JSON prefixed
// with "data: " and terminated by a blank line.
//
// The optional "run" query parameter restricts the stream to envelopes from
// a single pipeline run; the synthetic "connected" acknowledgment is always
// delivered regardless of filter.
//
// The session subscribes on connect and unsubscribes on every exit path, so
// a disconnected viewer never lingers in the bus registry.
func SSEHandler(bus *Bus) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)

		runFilter := r.URL.Query().Get("run")

		// Synthetic acknowledgment, local to this session, not from the bus.
		if err := writeSSE(w, NewEnvelope("", EventConnected, map[string]any{
			"message": "stream connected",
		})); err != nil {
			return
		}
		flusher.Flush()

		for {
			env, err := sub.Receive(r.Context())
			if err != nil {
				// Client gone or bus shut the subscriber down.
				return
			}
			if runFilter != "" && env.RunID != runFilter {
				continue
			}
			if err := writeSSE(w, env); err != nil {
				return
			}
			flusher.Flush()
		}
	})
}

// writeSSE frames one envelope as a Server-Sent Event.
func writeSSE(w http.ResponseWriter, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}
