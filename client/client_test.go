package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

func newMirror(h Handlers) *Client {
	return &Client{
		handlers: h,
		users:    make(map[string]domain.User),
		done:     make(chan struct{}),
	}
}

func frame(t *testing.T, eventType string, payload any) []byte {
	t.Helper()
	data, err := domain.Encode(eventType, payload)
	require.NoError(t, err)
	return data
}

func mirrorStroke(id string) domain.Stroke {
	return domain.Stroke{
		StrokeID: id,
		Tool:     domain.ToolBrush,
		Color:    "#4ECDC4",
		Size:     3,
		Points:   []domain.Point{{X: 0, Y: 0}, {X: 5, Y: 5}},
		UserID:   "u1",
		UserName: "alice",
	}
}

func TestDispatch_InitReplacesMirror(t *testing.T) {
	var gotInit *domain.InitPayload
	c := newMirror(Handlers{OnInit: func(p domain.InitPayload) { gotInit = &p }})

	// stale state that must be replaced wholesale
	c.history = []domain.Stroke{mirrorStroke("old")}
	c.users["ghost"] = domain.User{Name: "ghost", Color: "#000000"}

	c.dispatch(frame(t, domain.EventInit, domain.InitPayload{
		UserID:   "u1",
		UserName: "alice",
		Color:    "#FF6B6B",
		History:  []domain.Stroke{mirrorStroke("s1"), mirrorStroke("s2")},
		Users: map[string]domain.User{
			"u1": {Name: "alice", Color: "#FF6B6B"},
			"u2": {Name: "bob", Color: "#4ECDC4"},
		},
	}))

	require.NotNil(t, gotInit)

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "s1", history[0].StrokeID)

	users := c.Users()
	assert.Len(t, users, 2)
	assert.NotContains(t, users, "ghost")

	id, name, color := c.Me()
	assert.Equal(t, "u1", id)
	assert.Equal(t, "alice", name)
	assert.Equal(t, "#FF6B6B", color)
}

func TestDispatch_DrawAppends(t *testing.T) {
	var drawn []string
	c := newMirror(Handlers{OnDraw: func(s domain.Stroke) { drawn = append(drawn, s.StrokeID) }})

	c.dispatch(frame(t, domain.EventDraw, mirrorStroke("s1")))
	c.dispatch(frame(t, domain.EventDraw, mirrorStroke("s2")))

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "s1", history[0].StrokeID)
	assert.Equal(t, "s2", history[1].StrokeID)
	assert.Equal(t, []string{"s1", "s2"}, drawn)
}

func TestDispatch_UndoFiltersMirror(t *testing.T) {
	var undone string
	c := newMirror(Handlers{OnUndo: func(id string) { undone = id }})
	c.history = []domain.Stroke{mirrorStroke("s1"), mirrorStroke("s2"), mirrorStroke("s3")}

	c.dispatch(frame(t, domain.EventUndo, domain.UndoPayload{StrokeID: "s2"}))

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "s1", history[0].StrokeID)
	assert.Equal(t, "s3", history[1].StrokeID)
	assert.Equal(t, "s2", undone)
}

func TestDispatch_UndoUnknownID(t *testing.T) {
	c := newMirror(Handlers{})
	c.history = []domain.Stroke{mirrorStroke("s1")}

	c.dispatch(frame(t, domain.EventUndo, domain.UndoPayload{StrokeID: "nope"}))

	assert.Len(t, c.History(), 1)
}

func TestDispatch_ClearEmptiesMirror(t *testing.T) {
	cleared := false
	c := newMirror(Handlers{OnClear: func() { cleared = true }})
	c.history = []domain.Stroke{mirrorStroke("s1")}

	c.dispatch(frame(t, domain.EventClearCanvas, nil))

	assert.Empty(t, c.History())
	assert.True(t, cleared)
}

func TestDispatch_UserJoinedAndLeft(t *testing.T) {
	var events []string
	c := newMirror(Handlers{
		OnUserJoined: func(p domain.UserJoinedPayload) { events = append(events, "joined:"+p.UserName) },
		OnUserLeft:   func(p domain.UserLeftPayload) { events = append(events, "left:"+p.UserName) },
	})

	c.dispatch(frame(t, domain.EventUserJoined, domain.UserJoinedPayload{
		UserID: "u2", UserName: "bob", Color: "#45B7D1",
	}))
	require.Len(t, c.Users(), 1)
	assert.Equal(t, domain.User{Name: "bob", Color: "#45B7D1"}, c.Users()["u2"])

	c.dispatch(frame(t, domain.EventUserLeft, domain.UserLeftPayload{UserID: "u2", UserName: "bob"}))
	assert.Empty(t, c.Users())

	assert.Equal(t, []string{"joined:bob", "left:bob"}, events)
}

func TestDispatch_CursorMoveNotMirrored(t *testing.T) {
	var got *domain.CursorBroadcast
	c := newMirror(Handlers{OnCursorMove: func(p domain.CursorBroadcast) { got = &p }})

	c.dispatch(frame(t, domain.EventCursorMove, domain.CursorBroadcast{
		UserID: "u2", UserName: "bob", X: 3, Y: 4,
	}))

	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.X)
	assert.Empty(t, c.History())
}

func TestDispatch_GarbageIgnored(t *testing.T) {
	c := newMirror(Handlers{})

	c.dispatch([]byte("not json"))
	c.dispatch(frame(t, "wormhole", nil))

	assert.Empty(t, c.History())
	assert.Empty(t, c.Users())
}
