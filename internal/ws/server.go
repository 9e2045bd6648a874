// Package ws pushes change signals to attached UI contexts. A kiosk view
// holds one connection and re-reads gateway state whenever a signal names a
// key it renders from; the payload is a hint, never the data.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/bus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	channelGuest = "guest"
	channelStaff = "staff"
)

type signal struct {
	Type bus.Kind `json:"type"`
	Key  string   `json:"key"`
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

type Server struct {
	logger    *zap.Logger
	heartbeat time.Duration

	mu      sync.Mutex
	clients map[string]map[*client]struct{}

	// onStaffPresence fires on the staff channel's 0->1 and 1->0 client
	// transitions; main ties the dashboard poller lifecycle to it.
	onStaffPresence func(active bool)
}

func New(b *bus.Bus, heartbeat time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		logger:    logger,
		heartbeat: heartbeat,
		clients:   make(map[string]map[*client]struct{}),
	}

	b.Subscribe(func(evt bus.Event) {
		s.broadcast(channelGuest, signal{Type: evt.Kind, Key: evt.Key})
	}, bus.CartChanged, bus.StickyTableChanged, bus.CashRequestChanged)
	b.Subscribe(func(evt bus.Event) {
		s.broadcast(channelStaff, signal{Type: evt.Kind, Key: evt.Key})
	}, bus.CashRequestChanged)

	return s
}

func (s *Server) OnStaffPresence(fn func(active bool)) {
	s.mu.Lock()
	s.onStaffPresence = fn
	s.mu.Unlock()
}

func (s *Server) HandleGuest(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, channelGuest)
}

func (s *Server) HandleStaff(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, channelStaff)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	s.join(channel, c)
	defer s.leave(channel, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			// Clients never send data; the read loop only notices closes.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) join(channel string, c *client) {
	s.mu.Lock()
	if s.clients[channel] == nil {
		s.clients[channel] = make(map[*client]struct{})
	}
	s.clients[channel][c] = struct{}{}
	first := channel == channelStaff && len(s.clients[channel]) == 1
	fn := s.onStaffPresence
	s.mu.Unlock()

	if first && fn != nil {
		fn(true)
	}
}

func (s *Server) leave(channel string, c *client) {
	_ = c.conn.Close()

	s.mu.Lock()
	delete(s.clients[channel], c)
	last := channel == channelStaff && len(s.clients[channel]) == 0
	fn := s.onStaffPresence
	s.mu.Unlock()

	if last && fn != nil {
		fn(false)
	}
}

func (s *Server) broadcast(channel string, value any) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients[channel]))
	for c := range s.clients[channel] {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.writeJSON(value); err != nil {
			s.logger.Debug("ws write failed", zap.Error(err))
		}
	}
}
