package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/observerproto"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

func startServer(t *testing.T, s *Server) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts.URL
}

func dial(t *testing.T, base string, sub observerproto.SubscribeMsg) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(base, "http") + "/observer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	b, _ := json.Marshal(sub)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return conn
}

func waitSubscribers(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers=%d want %d", s.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_FiltersEventsBySubscription(t *testing.T) {
	s := NewServer(nil, nil)
	base := startServer(t, s)

	conn := dial(t, base, observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
		Sessions:        []string{"bot-1"},
		Events:          []string{string(controller.EventPathReset)},
	})
	waitSubscribers(t, s, 1)

	s.Emit(controller.Event{Type: controller.EventGoalUpdated, Session: "bot-1", Goal: "xz(1,1)"})
	s.Emit(controller.Event{Type: controller.EventPathReset, Session: "bot-2", Reason: controller.ResetStuck})
	s.PublishState(observerproto.StateMsg{Session: "bot-1", Tick: 3})
	s.Emit(controller.Event{Type: controller.EventPathReset, Session: "bot-1", Tick: 7, Reason: controller.ResetBlockUpdated})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got observerproto.EventMsg
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != "EVENT" || got.Event.Session != "bot-1" || got.Event.Reason != controller.ResetBlockUpdated || got.Event.Tick != 7 {
		t.Fatalf("got %+v", got)
	}
}

func TestServer_StatesOnRequest(t *testing.T) {
	s := NewServer(nil, nil)
	base := startServer(t, s)

	conn := dial(t, base, observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
		Events:          []string{"none"},
		States:          true,
	})
	waitSubscribers(t, s, 1)

	s.Emit(controller.Event{Type: controller.EventPathStop, Session: "bot-1"})
	s.PublishState(observerproto.StateMsg{Session: "bot-1", Tick: 4, Pos: [3]float64{0.5, 64, 0.5}, Moving: true})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got observerproto.StateMsg
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != "STATE" || got.Tick != 4 || !got.Moving || got.Pos[1] != 64 {
		t.Fatalf("got %+v", got)
	}
}

func TestServer_RejectsBadHandshake(t *testing.T) {
	s := NewServer(nil, nil)
	base := startServer(t, s)

	conn := dial(t, base, observerproto.SubscribeMsg{Type: "SUBSCRIBE", ProtocolVersion: "0.0"})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("err=%v want policy violation close", err)
	}
	if s.Subscribers() != 0 {
		t.Fatalf("subscribers=%d", s.Subscribers())
	}
}

func TestServer_Bootstrap(t *testing.T) {
	s := NewServer(func() observerproto.BootstrapResponse {
		return observerproto.BootstrapResponse{
			Tick:         12,
			Sessions:     []observerproto.SessionInfo{{ID: "bot-1", Name: "walker"}},
			BlockPalette: []string{"air", "stone"},
			Tuning:       tuning.Defaults(),
		}
	}, nil)
	base := startServer(t, s)

	resp, err := http.Get(base + "/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProtocolVersion != observerproto.Version || got.Tick != 12 || len(got.Sessions) != 1 || got.BlockPalette[0] != "air" {
		t.Fatalf("got %+v", got)
	}
	if got.Tuning.Controller.StuckMs != tuning.Defaults().Controller.StuckMs {
		t.Fatalf("tuning not carried: %+v", got.Tuning.Controller)
	}

	post, err := http.Post(base+"/observer/bootstrap", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("post status=%d", post.StatusCode)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:5000":  false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}
