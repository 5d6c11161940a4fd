package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nomination_ledger/internal/app/realtime"
	"nomination_ledger/internal/domain/model"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) realtime.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg realtime.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubStreamsSnapshotAndBroadcasts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	initial := func(*http.Request) (model.MetricsSnapshot, error) {
		return model.MetricsSnapshot{Global: model.GlobalStats{TotalVotes: 7}}, nil
	}
	srv := httptest.NewServer(hub.Handler(initial))
	defer srv.Close()

	conn := dial(t, srv)
	first := readMessage(t, conn)
	if first.Type != realtime.MessageSnapshot {
		t.Fatalf("expected initial snapshot, got %q", first.Type)
	}
	payload, _ := json.Marshal(first.Payload)
	var snap model.MetricsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil || snap.Global.TotalVotes != 7 {
		t.Fatalf("unexpected initial snapshot %s (%v)", payload, err)
	}

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	hub.Broadcast(realtime.Message{Type: realtime.MessageChange, Payload: model.ChangeEvent{ID: "ev-1", Type: model.ChangeInsert}})

	got := readMessage(t, conn)
	if got.Type != realtime.MessageChange {
		t.Fatalf("expected change message, got %q", got.Type)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler(nil))
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHubStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(hub.Handler(nil))
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	<-stopped
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to be closed")
	}
}
