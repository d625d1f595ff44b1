package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one message on the WebSocket change feed.
type Event struct {
	Type      string `json:"type"`
	Action    string `json:"action,omitempty"`
	Path      string `json:"path,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Hub fans file-change events out to every connected WebSocket client.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

func newHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			// The browser UI is served from this same server; CORS
			// already guards cross-origin API calls.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) run() {
	for msg := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

// BroadcastChange publishes a fs_change event; drops the event when the
// buffer is full rather than blocking a file operation.
func (h *Hub) BroadcastChange(action, path string) {
	data, err := json.Marshal(Event{
		Type:      "fs_change",
		Action:    action,
		Path:      path,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Printf("⚠️ Change feed buffer full, dropping event for %s\n", path)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v\n", err)
		return
	}

	s.hub.mu.Lock()
	s.hub.clients[conn] = true
	s.hub.mu.Unlock()

	status, _ := json.Marshal(Event{
		Type:      "status",
		Message:   "Connected to File Manager",
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err := conn.WriteMessage(websocket.TextMessage, status); err != nil {
		s.hub.remove(conn)
		return
	}

	// Reader loop only detects disconnects; clients do not send commands.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
