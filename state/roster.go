package state

import (
	"sync"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

// Roster maps room id to the set of connected users. No capacity limits and
// no uniqueness constraints on display name or color.
type Roster struct {
	rooms map[string]map[string]domain.User
	mu    sync.RWMutex
}

func NewRoster() *Roster {
	return &Roster{
		rooms: make(map[string]map[string]domain.User),
	}
}

// Add inserts or overwrites the user's roster entry for the room.
func (r *Roster) Add(roomID, userID, name, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.rooms[roomID]
	if !ok {
		users = make(map[string]domain.User)
		r.rooms[roomID] = users
	}
	users[userID] = domain.User{Name: name, Color: color}
}

// Remove deletes the user if present; removing twice is the same as once.
func (r *Roster) Remove(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if users, ok := r.rooms[roomID]; ok {
		delete(users, userID)
	}
}

// Users returns a copy of the room's user map, empty for unknown rooms.
func (r *Roster) Users(roomID string) map[string]domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.User, len(r.rooms[roomID]))
	for id, u := range r.rooms[roomID] {
		out[id] = u
	}
	return out
}
