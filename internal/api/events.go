package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is a pad-change notification pushed to websocket subscribers.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Bank    string `json:"bank,omitempty"`
	Pad     int    `json:"pad,omitempty"`
	Name    string `json:"name,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access control happens in the bearer-token middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans pad-change events out to connected websocket clients.
type hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger,
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
}

// broadcast sends ev to every subscriber, dropping connections that fail.
func (h *hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("dropping event subscriber", "error", err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// closeAll disconnects every subscriber.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

// handleEvents handles GET /v1/events requests, upgrading the connection to
// a websocket that receives pad-change events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	s.hub.add(conn)
	s.logger.Debug("event subscriber connected", "remote_addr", r.RemoteAddr)

	// Reader loop only detects disconnect; clients never send payloads.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
