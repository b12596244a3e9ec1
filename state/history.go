// Package state owns the authoritative in-memory room state: the stroke
// history replayed to late joiners and the roster of connected users.
// Rooms are created on first reference and retained for the process
// lifetime; nothing here is persisted.
package state

import (
	"sync"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

// History is the per-room stroke log. Insertion order is visual draw order.
type History struct {
	strokes map[string][]domain.Stroke
	mu      sync.RWMutex
}

func NewHistory() *History {
	return &History{
		strokes: make(map[string][]domain.Stroke),
	}
}

// Append adds a stroke to the tail of the room's log, unconditionally.
func (h *History) Append(roomID string, stroke domain.Stroke) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.strokes[roomID] = append(h.strokes[roomID], stroke)
}

// Remove deletes every stroke with the given id from the room's log.
// Removing an id that is not present is a no-op, not an error.
func (h *History) Remove(roomID, strokeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log, ok := h.strokes[roomID]
	if !ok {
		return
	}

	kept := log[:0]
	for _, s := range log {
		if s.StrokeID != strokeID {
			kept = append(kept, s)
		}
	}
	h.strokes[roomID] = kept
}

// Snapshot returns a copy of the room's log in append order. Unknown rooms
// yield an empty slice so the result always marshals as a JSON array.
func (h *History) Snapshot(roomID string) []domain.Stroke {
	h.mu.RLock()
	defer h.mu.RUnlock()

	log := h.strokes[roomID]
	out := make([]domain.Stroke, len(log))
	copy(out, log)
	return out
}

// Clear replaces the room's log with an empty one.
func (h *History) Clear(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.strokes[roomID] = make([]domain.Stroke, 0)
}

// Len reports the number of strokes currently held for the room.
func (h *History) Len(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.strokes[roomID])
}
