package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSHandler returns an http.Handler that upgrades requests to WebSocket and
// streams the same envelopes as the SSE endpoint, one JSON text message per
// envelope. Ping/pong keepalives clean up stale connections. The optional
// "run" query parameter filters by pipeline run, like the SSE session.
func WSHandler(bus *Bus) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}

		// The request context dies when this handler returns, so the
		// session runs on its own context, cancelled by the read loop
		// when the peer goes away.
		ctx, cancel := context.WithCancel(context.Background())

		// Read loop exists only to detect the peer closing and to service
		// pong frames.
		go func() {
			defer cancel()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		sub := bus.Subscribe()
		defer func() {
			cancel()
			bus.Unsubscribe(sub)
			_ = conn.Close()
		}()

		runFilter := r.URL.Query().Get("run")

		if err := writeWS(conn, NewEnvelope("", EventConnected, map[string]any{
			"message": "stream connected",
		})); err != nil {
			return
		}

		ping := time.NewTicker(20 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
				continue
			default:
			}

			// Bounded receive so the ping ticker is serviced even when the
			// bus is quiet.
			recvCtx, recvCancel := context.WithTimeout(ctx, time.Second)
			env, err := sub.Receive(recvCtx)
			recvCancel()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, ErrUnsubscribed) {
					return
				}
				continue
			}
			if runFilter != "" && env.RunID != runFilter {
				continue
			}
			if err := writeWS(conn, env); err != nil {
				return
			}
		}
	})
}

func writeWS(conn *websocket.Conn, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
