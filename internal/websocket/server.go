// Package websocket pushes session events to connected UI clients.
// The stream is one-way: client frames are read only to service the
// keepalive, never interpreted.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

// Message types published over the event stream.
const (
	TypeTransmission   = "transmission"
	TypeReply          = "reply"
	TypeStateChange    = "state_change"
	TypePhaseChange    = "phase_change"
	TypeReadback       = "readback"
	TypeClearance      = "clearance"
	TypeSessionCreated = "session_created"
	TypeSessionReset   = "session_reset"
	TypeSessionClosed  = "session_closed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxReadBytes   = 512
	sendBufferSize = 64
)

// Message is one event frame as sent on the wire.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server fans broadcast messages out to every connected client. A client
// whose send buffer fills is disconnected rather than allowed to stall
// the broadcast path.
type Server struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*client]struct{}
	logger   *logger.Logger
}

// NewServer creates a websocket server. allowedOrigins of nil or ["*"]
// accepts any origin.
func NewServer(allowedOrigins []string, log *logger.Logger) *Server {
	s := &Server{
		clients: make(map[*client]struct{}),
		logger:  log.Named("websocket"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return s
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleConnection upgrades an HTTP request and registers the client.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade websocket connection", logger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Info("Websocket client connected",
		logger.String("remote", conn.RemoteAddr().String()),
		logger.Int("clients", count))

	go s.writePump(c)
	go s.readPump(c)
}

// Broadcast sends a message to every connected client. Marshal failures
// are logged and the message dropped; they never reach the wire.
func (s *Server) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal websocket message",
			logger.String("type", msg.Type), logger.Error(err))
		return
	}

	var slow []*client
	s.mu.RLock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		s.logger.Warn("Disconnecting slow websocket client",
			logger.String("remote", c.conn.RemoteAddr().String()))
		s.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client. The server accepts new connections
// afterwards; callers stop routing to it when shutting down for good.
func (s *Server) Close() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

// remove unregisters a client and closes its send channel exactly once.
func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, registered := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if registered {
		close(c.send)
	}
}

// writePump owns all writes on the connection, including keepalive pings.
// It exits when the send channel closes or a write fails; closing the
// connection on exit unblocks the read pump.
func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames to keep the connection's pong handler
// serviced and unregisters the client when the connection drops.
func (s *Server) readPump(c *client) {
	defer s.remove(c)

	c.conn.SetReadLimit(maxReadBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
