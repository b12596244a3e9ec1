// Package protocol implements the per-connection session state machine and
// routes whiteboard events to room state and the broadcaster. A connection
// is anonymous until its join event is accepted; everything it sends before
// that is dropped.
package protocol

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
	"github.com/mjsswaroop/Flam-Collaborative-Canvas/state"
)

// palette of colors handed out to joining users, picked at random.
var palette = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8"}

const (
	defaultName = "Anonymous"
	defaultRoom = "default"
)

type session struct {
	room  string
	name  string
	color string
}

type Handler struct {
	broadcaster domain.Broadcaster
	history     *state.History
	roster      *state.Roster

	mu       sync.RWMutex
	sessions map[string]*session

	// roomLocks serializes mutate-then-broadcast per room, so every client
	// observes draw/undo/redo/clear in the same order the log applied them.
	lockMu    sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewHandler(b domain.Broadcaster, history *state.History, roster *state.Roster) *Handler {
	return &Handler{
		broadcaster: b,
		history:     history,
		roster:      roster,
		sessions:    make(map[string]*session),
		roomLocks:   make(map[string]*sync.Mutex),
	}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch env.Type {
	case domain.EventJoin:
		h.handleJoin(conn, env.Data)
	case domain.EventDraw:
		h.handleDraw(conn, env.Data)
	case domain.EventCursorMove:
		h.handleCursorMove(conn, env.Data)
	case domain.EventUndo:
		h.handleUndo(conn, env.Data)
	case domain.EventRedo:
		h.handleRedo(conn, env.Data)
	case domain.EventClearCanvas:
		h.handleClear(conn)
	default:
		slog.Debug("unknown event type", "clientId", conn.ID(), "type", env.Type)
	}
}

func (h *Handler) handleJoin(conn domain.Connection, data []byte) {
	var req domain.JoinRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Warn("invalid join payload", "clientId", conn.ID(), "error", err)
			return
		}
	}
	if req.Name == "" {
		req.Name = defaultName
	}
	if req.Room == "" {
		req.Room = defaultRoom
	}

	h.mu.Lock()
	if _, joined := h.sessions[conn.ID()]; joined {
		h.mu.Unlock()
		slog.Debug("duplicate join ignored", "clientId", conn.ID())
		return
	}
	sess := &session{
		room:  req.Room,
		name:  req.Name,
		color: palette[rand.Intn(len(palette))],
	}
	h.sessions[conn.ID()] = sess
	h.mu.Unlock()

	lock := h.roomLock(sess.room)
	lock.Lock()
	defer lock.Unlock()

	h.broadcaster.Register(sess.room, conn)
	h.roster.Add(sess.room, conn.ID(), sess.name, sess.color)

	init, err := domain.Encode(domain.EventInit, domain.InitPayload{
		UserID:   conn.ID(),
		UserName: sess.name,
		Color:    sess.color,
		History:  h.history.Snapshot(sess.room),
		Users:    h.roster.Users(sess.room),
	})
	if err != nil {
		slog.Error("encode init", "clientId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(init); err != nil {
		slog.Warn("send init", "clientId", conn.ID(), "error", err)
		return
	}

	joined, err := domain.Encode(domain.EventUserJoined, domain.UserJoinedPayload{
		UserID:   conn.ID(),
		UserName: sess.name,
		Color:    sess.color,
	})
	if err != nil {
		slog.Error("encode user_joined", "clientId", conn.ID(), "error", err)
		return
	}
	h.broadcaster.BroadcastExcept(sess.room, conn, joined)

	slog.Info("user joined", "room", sess.room, "clientId", conn.ID(), "name", sess.name)
}

func (h *Handler) handleDraw(conn domain.Connection, data []byte) {
	sess := h.session(conn)
	if sess == nil {
		return
	}

	var stroke domain.Stroke
	if err := json.Unmarshal(data, &stroke); err != nil {
		slog.Warn("invalid draw payload", "clientId", conn.ID(), "error", err)
		return
	}
	if len(stroke.Points) < 2 {
		return
	}

	stroke.UserID = conn.ID()
	stroke.UserName = sess.name
	stroke.Timestamp = time.Now().UnixMilli()

	h.appendAndEmit(conn, sess, stroke, false)
}

func (h *Handler) handleCursorMove(conn domain.Connection, data []byte) {
	sess := h.session(conn)
	if sess == nil {
		return
	}

	var pos domain.CursorPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return
	}

	out, err := domain.Encode(domain.EventCursorMove, domain.CursorBroadcast{
		UserID:   conn.ID(),
		UserName: sess.name,
		X:        pos.X,
		Y:        pos.Y,
	})
	if err != nil {
		return
	}
	h.broadcaster.BroadcastExcept(sess.room, conn, out)
}

func (h *Handler) handleUndo(conn domain.Connection, data []byte) {
	sess := h.session(conn)
	if sess == nil {
		return
	}

	var undo domain.UndoPayload
	if err := json.Unmarshal(data, &undo); err != nil {
		return
	}

	out, err := domain.Encode(domain.EventUndo, undo)
	if err != nil {
		return
	}

	lock := h.roomLock(sess.room)
	lock.Lock()
	defer lock.Unlock()

	h.history.Remove(sess.room, undo.StrokeID)
	// the whole room, sender included: every client replays its mirror
	h.broadcaster.Broadcast(sess.room, out)
}

// handleRedo re-appends the stroke at the tail and re-emits it as a fresh
// draw to the whole room. A redone stroke gets a new append-order position;
// the original z-order is not restored.
func (h *Handler) handleRedo(conn domain.Connection, data []byte) {
	sess := h.session(conn)
	if sess == nil {
		return
	}

	var redo domain.RedoPayload
	if err := json.Unmarshal(data, &redo); err != nil {
		slog.Warn("invalid redo payload", "clientId", conn.ID(), "error", err)
		return
	}

	stroke := redo.Stroke
	if len(stroke.Points) < 2 {
		return
	}
	stroke.UserID = conn.ID()
	stroke.UserName = sess.name
	stroke.Timestamp = time.Now().UnixMilli()

	h.appendAndEmit(conn, sess, stroke, true)
}

func (h *Handler) appendAndEmit(conn domain.Connection, sess *session, stroke domain.Stroke, includeSender bool) {
	out, err := domain.Encode(domain.EventDraw, stroke)
	if err != nil {
		slog.Error("encode draw", "clientId", conn.ID(), "error", err)
		return
	}

	lock := h.roomLock(sess.room)
	lock.Lock()
	defer lock.Unlock()

	h.history.Append(sess.room, stroke)
	if includeSender {
		h.broadcaster.Broadcast(sess.room, out)
	} else {
		h.broadcaster.BroadcastExcept(sess.room, conn, out)
	}
}

func (h *Handler) handleClear(conn domain.Connection) {
	sess := h.session(conn)
	if sess == nil {
		return
	}

	out, err := domain.Encode(domain.EventClearCanvas, nil)
	if err != nil {
		return
	}

	lock := h.roomLock(sess.room)
	lock.Lock()
	defer lock.Unlock()

	h.history.Clear(sess.room)
	h.broadcaster.Broadcast(sess.room, out)

	slog.Info("canvas cleared", "room", sess.room, "clientId", conn.ID())
}

// Disconnect tears down the connection's session, if it ever joined, and
// notifies the rest of the room. Safe to call more than once.
func (h *Handler) Disconnect(conn domain.Connection) {
	h.mu.Lock()
	sess, joined := h.sessions[conn.ID()]
	delete(h.sessions, conn.ID())
	h.mu.Unlock()

	if !joined {
		return
	}

	lock := h.roomLock(sess.room)
	lock.Lock()
	defer lock.Unlock()

	h.roster.Remove(sess.room, conn.ID())
	h.broadcaster.Unregister(sess.room, conn)

	out, err := domain.Encode(domain.EventUserLeft, domain.UserLeftPayload{
		UserID:   conn.ID(),
		UserName: sess.name,
	})
	if err != nil {
		return
	}
	h.broadcaster.Broadcast(sess.room, out)

	slog.Info("user left", "room", sess.room, "clientId", conn.ID(), "name", sess.name)
}

func (h *Handler) session(conn domain.Connection) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[conn.ID()]
}

func (h *Handler) roomLock(roomID string) *sync.Mutex {
	h.lockMu.Lock()
	defer h.lockMu.Unlock()

	lock, ok := h.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		h.roomLocks[roomID] = lock
	}
	return lock
}
