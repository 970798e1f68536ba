package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/road-risk-sim/simulator/internal/driver"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans simulation snapshots out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// BroadcastSnapshot sends the snapshot to every connected client, dropping
// clients whose writes fail. Implements driver.Broadcaster.
func (h *Hub) BroadcastSnapshot(snap driver.Snapshot) {
	data, _ := json.Marshal(snap)
	h.mu.Lock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// handleWebSocket upgrades the connection and immediately sends the latest
// snapshot so a new map client can center itself without waiting for a tick.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	// The initial snapshot must go out before the conn joins the hub: once
	// added, broadcasts may write to it, and the conn allows only one
	// concurrent writer.
	data, _ := json.Marshal(s.snapshots.Snapshot())
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = conn.Close()
		return
	}

	s.hub.add(conn)
	go s.readPump(conn)
}

// readPump drains client messages until the connection drops; clients only
// listen, so the payloads are discarded.
func (s *Server) readPump(c *websocket.Conn) {
	defer func() {
		s.hub.remove(c)
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
