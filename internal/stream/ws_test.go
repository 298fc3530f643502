package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsDial(t *testing.T, bus *Bus, query string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(WSHandler(bus))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s failed: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsReadEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("malformed message %q: %v", msg, err)
	}
	return env
}

// TestWSConnectedAndDelivery verifies the upgrade handshake, the opening
// acknowledgment, and delivery of a published envelope as a text message.
func TestWSConnectedAndDelivery(t *testing.T) {
	bus := NewBus(0)
	conn := wsDial(t, bus, "")

	if env := wsReadEnvelope(t, conn); env.Type != EventConnected {
		t.Fatalf("expected connected first, got %q", env.Type)
	}

	waitForSubscriber(t, bus)
	bus.Publish(NewEnvelope("run-3", EventStatus, map[string]any{"message": "working"}))

	env := wsReadEnvelope(t, conn)
	if env.Type != EventStatus || env.RunID != "run-3" {
		t.Fatalf("unexpected envelope: type=%q run=%q", env.Type, env.RunID)
	}
}

// TestWSRunFilter verifies the run query parameter on the WebSocket
// endpoint.
func TestWSRunFilter(t *testing.T) {
	bus := NewBus(0)
	conn := wsDial(t, bus, "?run=mine")

	if env := wsReadEnvelope(t, conn); env.Type != EventConnected {
		t.Fatalf("expected connected first, got %q", env.Type)
	}

	waitForSubscriber(t, bus)
	bus.Publish(NewEnvelope("other", EventStatus, map[string]any{"message": "not mine"}))
	bus.Publish(NewEnvelope("mine", EventStatus, map[string]any{"message": "mine"}))

	env := wsReadEnvelope(t, conn)
	if env.RunID != "mine" {
		t.Fatalf("filter leaked run %q", env.RunID)
	}
}

// TestWSUnsubscribeOnClose verifies a closed client is removed from the bus.
func TestWSUnsubscribeOnClose(t *testing.T) {
	bus := NewBus(0)
	conn := wsDial(t, bus, "")

	waitForSubscriber(t, bus)
	conn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for bus.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber lingered after close: %d registered", bus.SubscriberCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
