package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/events"
)

const (
	streamWriteWait = 5 * time.Second
	streamReadWait  = 60 * time.Second
	streamBuffer    = 64
)

// pingPeriod must stay below the read wait so a listen-only peer's pong
// arrives before its deadline.
func pingPeriod(readWait time.Duration) time.Duration {
	return readWait * 9 / 10
}

// Subscriber is the read side of the event bus.
type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

// EventStream serves GET /events: a websocket that first sends a
// "snapshot" event with the full state and then relays every bus event.
type EventStream struct {
	bus      Subscriber
	snapshot func() domain.Snapshot
	logger   *slog.Logger
	upgrader websocket.Upgrader
	readWait time.Duration

	mu     sync.Mutex
	closed bool
	conns  map[*websocket.Conn]struct{}
}

// NewEventStream builds an EventStream. checkOrigin may be nil to accept any origin.
func NewEventStream(bus Subscriber, snapshot func() domain.Snapshot, logger *slog.Logger, checkOrigin func(*http.Request) bool) *EventStream {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &EventStream{
		bus:      bus,
		snapshot: snapshot,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkOrigin,
		},
		readWait: streamReadWait,
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

// WithReadWait sets how long a connection may go without any frame from the
// peer, pongs included. Pings go out at nine tenths of it.
func (s *EventStream) WithReadWait(d time.Duration) *EventStream {
	if d > 0 {
		s.readWait = d
	}
	return s
}

func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("event stream upgrade failed", "error", err)
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	sub, cancelSub := s.bus.Subscribe(streamBuffer)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- s.writeLoop(ctx, conn, sub)
	}()

	// The reader only detects the peer going away. Pongs answering the
	// writer's pings keep an idle listener alive.
	_ = conn.SetReadDeadline(time.Now().Add(s.readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.readWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.readWait))
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
}

func (s *EventStream) writeLoop(ctx context.Context, conn *websocket.Conn, sub <-chan events.Event) error {
	if s.snapshot != nil {
		first := events.Event{Kind: "snapshot", At: time.Now().UTC(), Payload: s.snapshot()}
		if err := writeEvent(conn, first); err != nil {
			return err
		}
	}
	ticker := time.NewTicker(pingPeriod(s.readWait))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if err := writeEvent(conn, ev); err != nil {
				return err
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev events.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Close disconnects every live stream and refuses new ones.
func (s *EventStream) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = c.Close()
	}
}

func (s *EventStream) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *EventStream) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}
