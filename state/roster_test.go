package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

func TestRoster_AddAndList(t *testing.T) {
	r := NewRoster()

	r.Add("room1", "u1", "alice", "#FF6B6B")
	r.Add("room1", "u2", "bob", "#4ECDC4")
	r.Add("room2", "u3", "carol", "#45B7D1")

	users := r.Users("room1")
	require.Len(t, users, 2)
	assert.Equal(t, domain.User{Name: "alice", Color: "#FF6B6B"}, users["u1"])
	assert.Equal(t, domain.User{Name: "bob", Color: "#4ECDC4"}, users["u2"])

	assert.Len(t, r.Users("room2"), 1)
}

func TestRoster_AddOverwrites(t *testing.T) {
	r := NewRoster()

	r.Add("room1", "u1", "alice", "#FF6B6B")
	r.Add("room1", "u1", "alice2", "#98D8C8")

	users := r.Users("room1")
	require.Len(t, users, 1)
	assert.Equal(t, "alice2", users["u1"].Name)
}

func TestRoster_RemoveIdempotent(t *testing.T) {
	r := NewRoster()
	r.Add("room1", "u1", "alice", "#FF6B6B")

	r.Remove("room1", "u1")
	first := r.Users("room1")

	r.Remove("room1", "u1")
	second := r.Users("room1")

	assert.Empty(t, first)
	assert.Equal(t, first, second)
}

func TestRoster_UnknownRoom(t *testing.T) {
	r := NewRoster()

	users := r.Users("nowhere")
	require.NotNil(t, users)
	assert.Empty(t, users)

	r.Remove("nowhere", "u1")
}

func TestRoster_UsersIsCopy(t *testing.T) {
	r := NewRoster()
	r.Add("room1", "u1", "alice", "#FF6B6B")

	users := r.Users("room1")
	delete(users, "u1")

	assert.Len(t, r.Users("room1"), 1)
}
