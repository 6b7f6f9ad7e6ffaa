package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-host settings UI; no cross-origin surface
	},
}

// Event is a config-change notification pushed to subscribed UIs so they
// can refetch instead of polling.
type Event struct {
	Type     string `json:"type"`
	Document string `json:"document"`
	Revision string `json:"revision"`
	Seq      int64  `json:"seq"`
}

// EventHub fans config-change events out to WebSocket subscribers.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Broadcast sends the event to every subscriber. Write failures drop the
// subscriber.
func (h *EventHub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("event write error: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *EventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}

// CloseAll disconnects every subscriber.
func (h *EventHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	s.events.add(conn)
	defer s.events.remove(conn)

	// The feed is one-way. Read until the client goes away so we notice
	// the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			return
		}
	}
}
