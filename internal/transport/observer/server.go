// Package observer streams controller events and agent states to websocket
// clients on the loopback interface.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/observerproto"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
)

// BootstrapFunc snapshots what a client needs before subscribing.
type BootstrapFunc func() observerproto.BootstrapResponse

type Server struct {
	bootstrap BootstrapFunc
	log       *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.RWMutex
	subs map[string]*subscriber

	dropped atomic.Uint64
}

type subscriber struct {
	out    chan []byte
	filter atomic.Pointer[filter]
}

type filter struct {
	sessions map[string]bool
	events   map[string]bool
	states   bool
}

func (f *filter) wantsSession(id string) bool {
	return len(f.sessions) == 0 || f.sessions[id]
}

func NewServer(bootstrap BootstrapFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		bootstrap: bootstrap,
		log:       logger,
		subs:      map[string]*subscriber{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only
		},
	}
}

// Emit broadcasts a controller event. Slow subscribers lose messages
// instead of stalling the tick.
func (s *Server) Emit(ev controller.Event) {
	if s.subscriberCount() == 0 {
		return
	}
	b, err := json.Marshal(observerproto.EventMsg{
		Type:            "EVENT",
		ProtocolVersion: observerproto.Version,
		Event:           ev,
	})
	if err != nil {
		s.log.Printf("observer: marshal %s: %v", ev.Type, err)
		return
	}
	s.broadcast(b, func(f *filter) bool {
		return f.wantsSession(ev.Session) && (len(f.events) == 0 || f.events[string(ev.Type)])
	})
}

// PublishState broadcasts an agent state to subscribers that asked for it.
func (s *Server) PublishState(st observerproto.StateMsg) {
	if s.subscriberCount() == 0 {
		return
	}
	st.Type = "STATE"
	st.ProtocolVersion = observerproto.Version
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	s.broadcast(b, func(f *filter) bool { return f.states && f.wantsSession(st.Session) })
}

func (s *Server) broadcast(b []byte, want func(*filter) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if !want(sub.filter.Load()) {
			continue
		}
		select {
		case sub.out <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *Server) subscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Subscribers is the number of connected observers.
func (s *Server) Subscribers() int { return s.subscriberCount() }

// Dropped counts messages lost to full subscriber queues.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		var resp observerproto.BootstrapResponse
		if s.bootstrap != nil {
			resp = s.bootstrap()
		}
		resp.ProtocolVersion = observerproto.Version

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		sub := &subscriber{out: make(chan []byte, 1024)}
		sub.filter.Store(f)

		s.mu.Lock()
		s.subs[sid] = sub
		s.mu.Unlock()
		s.log.Printf("observer %s subscribed from %s", sid, r.RemoteAddr)
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			s.mu.Unlock()
			s.log.Printf("observer %s left", sid)
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sub.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if f, ok := parseSubscribe(msg); ok {
				sub.filter.Store(f)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func parseSubscribe(msg []byte) (*filter, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return nil, false
	}
	if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
		return nil, false
	}
	f := &filter{states: sub.States}
	if len(sub.Sessions) > 0 {
		f.sessions = make(map[string]bool, len(sub.Sessions))
		for _, id := range sub.Sessions {
			f.sessions[id] = true
		}
	}
	if len(sub.Events) > 0 {
		f.events = make(map[string]bool, len(sub.Events))
		for _, t := range sub.Events {
			f.events[t] = true
		}
	}
	return f, true
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
