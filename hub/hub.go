// Package hub tracks the live connections of each room and fans messages
// out to them. It knows nothing about the whiteboard protocol; the room a
// connection belongs to is decided by the session layer at join time and
// passed in explicitly.
package hub

import (
	"log/slog"
	"sync"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

type room struct {
	clients map[string]domain.Connection
	mu      sync.RWMutex
}

type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

func (h *Hub) Register(roomID string, conn domain.Connection) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		r = &room{clients: make(map[string]domain.Connection)}
		h.rooms[roomID] = r
	}
	// insert while still holding the hub lock so the empty-room pruning in
	// Unregister cannot drop the room between lookup and insert
	r.mu.Lock()
	r.clients[conn.ID()] = conn
	count := len(r.clients)
	r.mu.Unlock()
	h.mu.Unlock()

	slog.Info("client registered", "room", roomID, "clientId", conn.ID(), "clients", count)
}

func (h *Hub) Unregister(roomID string, conn domain.Connection) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	delete(r.clients, conn.ID())
	count := len(r.clients)
	r.mu.Unlock()

	slog.Info("client unregistered", "room", roomID, "clientId", conn.ID(), "clients", count)

	if count == 0 {
		// re-check under the hub lock: a Register may have slipped a client
		// into the room since the count was taken
		h.mu.Lock()
		r.mu.RLock()
		empty := len(r.clients) == 0
		r.mu.RUnlock()
		if empty {
			delete(h.rooms, roomID)
		}
		h.mu.Unlock()

		if empty {
			slog.Info("room removed", "room", roomID)
		}
	}
}

// Broadcast delivers data to every connection in the room, sender included.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.send(roomID, "", data)
}

// BroadcastExcept delivers data to every connection in the room but the
// sender's own.
func (h *Hub) BroadcastExcept(roomID string, sender domain.Connection, data []byte) {
	h.send(roomID, sender.ID(), data)
}

func (h *Hub) send(roomID, skipID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.clients {
		if id == skipID {
			continue
		}
		if err := conn.Send(data); err != nil {
			// Send fails when the connection's buffer is full or it is gone;
			// drop it without holding up the rest of the room.
			go func(c domain.Connection) {
				h.Unregister(roomID, c)
				c.Close()
			}(conn)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.clients)
		r.mu.RUnlock()
	}
	return rooms, clients
}
