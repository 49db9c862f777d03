package handlers

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/QuickRoll12/quickroll-backend/grid"
	"github.com/QuickRoll12/quickroll-backend/sessions"
)

// Hub fans grid updates out to the websocket watchers of each session key.
// It implements sessions.Observer: the lifecycle manager and the redemption
// pipeline push a snapshot here after every rotation and successful claim.
type Hub struct {
	mu       sync.Mutex
	watchers map[sessions.Key]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[sessions.Key]map[*websocket.Conn]struct{})}
}

// Register adds a watcher connection for a key.
func (h *Hub) Register(key sessions.Key, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[key] == nil {
		h.watchers[key] = make(map[*websocket.Conn]struct{})
	}
	h.watchers[key][conn] = struct{}{}
}

// Unregister drops a watcher connection.
func (h *Hub) Unregister(key sessions.Key, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.watchers[key]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.watchers, key)
		}
	}
}

// OnGridUpdated pushes the snapshot to every watcher of the key. A write
// failure drops that watcher; the client reconnects if it still cares.
func (h *Hub) OnGridUpdated(key sessions.Key, view grid.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.watchers[key] {
		if err := conn.WriteJSON(gridUpdate{Key: key, Grid: view}); err != nil {
			log.Printf("watcher for %s disconnected: %v", key.String(), err)
			conn.Close()
			delete(h.watchers[key], conn)
		}
	}
}

type gridUpdate struct {
	Key  sessions.Key `json:"key"`
	Grid grid.View    `json:"grid"`
}
