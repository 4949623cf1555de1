package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is broadcast to subscribers of a match channel.
type Event struct {
	Type     string    `json:"type"`
	MatchID  string    `json:"match_id"`
	SenderID uint64    `json:"sender_id,omitempty"`
	Text     string    `json:"text,omitempty"`
	SentAt   time.Time `json:"sent_at,omitempty"`
}

// subscriber wraps a connection with a write lock; gorilla/websocket allows
// at most one concurrent writer per connection.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub maintains active websocket subscriptions per match channel.
// The core match/swipe path never depends on it; it is the push half of the
// "subscribe for change notifications on channel X" capability.
type Hub struct {
	rooms map[string]map[*websocket.Conn]*subscriber
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]*subscriber)}
}

// Subscribe registers a websocket connection to a match channel.
func (h *Hub) Subscribe(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[matchID]; !ok {
		h.rooms[matchID] = make(map[*websocket.Conn]*subscriber)
	}
	h.rooms[matchID][conn] = &subscriber{conn: conn}
}

// Unsubscribe removes a connection from a match channel.
func (h *Hub) Unsubscribe(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[matchID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, matchID)
		}
	}
}

// Subscribers reports how many connections watch a match channel.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

// Broadcast sends an event to every subscriber of the match channel.
// Dead connections are closed and dropped; delivery is best effort, the DB
// remains the source of truth for message history.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.rooms[event.MatchID]))
	for _, sub := range h.rooms[event.MatchID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, sub := range subs {
		sub.mu.Lock()
		err := sub.conn.WriteMessage(websocket.TextMessage, payload)
		sub.mu.Unlock()
		if err != nil {
			sub.conn.Close()
			h.Unsubscribe(event.MatchID, sub.conn)
		}
	}
}
