// Package client is the sync adapter used by a rendering layer: it keeps a
// local mirror of the room's stroke history and user roster, driven by
// server broadcasts, and exposes callbacks for the renderer to react to.
// The mirror is eventually consistent with the server and is reconciled by
// full replacement on init and incremental append/remove afterwards.
package client

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mjsswaroop/Flam-Collaborative-Canvas/domain"
)

// Handlers are invoked from the read loop after the mirror has been
// updated. Nil handlers are skipped. A renderer typically triggers a full
// redraw on Init/Undo/Clear and an incremental draw on Draw.
type Handlers struct {
	OnInit       func(domain.InitPayload)
	OnDraw       func(domain.Stroke)
	OnCursorMove func(domain.CursorBroadcast)
	OnUndo       func(strokeID string)
	OnClear      func()
	OnUserJoined func(domain.UserJoinedPayload)
	OnUserLeft   func(domain.UserLeftPayload)
}

type Client struct {
	conn     *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex

	mu       sync.RWMutex
	history  []domain.Stroke
	users    map[string]domain.User
	userID   string
	userName string
	color    string

	done chan struct{}
}

// Dial connects to the server's /ws endpoint and starts the read loop.
// The client stays anonymous until Join is called.
func Dial(url string, handlers Handlers) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:     conn,
		handlers: handlers,
		users:    make(map[string]domain.User),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Done is closed when the read loop exits (connection lost or closed).
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Join(name, room string) error {
	return c.emit(domain.EventJoin, domain.JoinRequest{Name: name, Room: room})
}

// SendDraw submits a finished stroke. Strokes with fewer than two points
// are dropped here, before they reach the wire. A missing stroke id is
// filled in.
func (c *Client) SendDraw(stroke domain.Stroke) error {
	if len(stroke.Points) < 2 {
		return nil
	}
	if stroke.StrokeID == "" {
		stroke.StrokeID = uuid.NewString()
	}
	return c.emit(domain.EventDraw, stroke)
}

func (c *Client) SendCursor(x, y float64) error {
	return c.emit(domain.EventCursorMove, domain.CursorPosition{X: x, Y: y})
}

func (c *Client) SendUndo(strokeID string) error {
	return c.emit(domain.EventUndo, domain.UndoPayload{StrokeID: strokeID})
}

func (c *Client) SendRedo(stroke domain.Stroke) error {
	return c.emit(domain.EventRedo, domain.RedoPayload{Stroke: stroke})
}

func (c *Client) SendClear() error {
	return c.emit(domain.EventClearCanvas, nil)
}

// History returns a copy of the mirrored stroke log.
func (c *Client) History() []domain.Stroke {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Stroke, len(c.history))
	copy(out, c.history)
	return out
}

// Users returns a copy of the mirrored roster.
func (c *Client) Users() map[string]domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.User, len(c.users))
	for id, u := range c.users {
		out[id] = u
	}
	return out
}

// Me returns the identity assigned by the server's init message. Empty
// until init has been received.
func (c *Client) Me() (userID, userName, color string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.userName, c.color
}

func (c *Client) emit(eventType string, payload any) error {
	data, err := domain.Encode(eventType, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.dispatch(data)
	}
}

// dispatch applies one server message to the mirror and fires the matching
// handler. Separated from the read loop so the mirror logic is testable
// without a live connection.
func (c *Client) dispatch(data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid server message", "error", err)
		return
	}

	switch env.Type {
	case domain.EventInit:
		var init domain.InitPayload
		if err := json.Unmarshal(env.Data, &init); err != nil {
			return
		}
		c.mu.Lock()
		c.userID = init.UserID
		c.userName = init.UserName
		c.color = init.Color
		c.history = append([]domain.Stroke(nil), init.History...)
		c.users = make(map[string]domain.User, len(init.Users))
		for id, u := range init.Users {
			c.users[id] = u
		}
		c.mu.Unlock()
		if c.handlers.OnInit != nil {
			c.handlers.OnInit(init)
		}

	case domain.EventDraw:
		var stroke domain.Stroke
		if err := json.Unmarshal(env.Data, &stroke); err != nil {
			return
		}
		c.mu.Lock()
		c.history = append(c.history, stroke)
		c.mu.Unlock()
		if c.handlers.OnDraw != nil {
			c.handlers.OnDraw(stroke)
		}

	case domain.EventCursorMove:
		var cur domain.CursorBroadcast
		if err := json.Unmarshal(env.Data, &cur); err != nil {
			return
		}
		if c.handlers.OnCursorMove != nil {
			c.handlers.OnCursorMove(cur)
		}

	case domain.EventUndo:
		var undo domain.UndoPayload
		if err := json.Unmarshal(env.Data, &undo); err != nil {
			return
		}
		c.mu.Lock()
		kept := c.history[:0]
		for _, s := range c.history {
			if s.StrokeID != undo.StrokeID {
				kept = append(kept, s)
			}
		}
		c.history = kept
		c.mu.Unlock()
		if c.handlers.OnUndo != nil {
			c.handlers.OnUndo(undo.StrokeID)
		}

	case domain.EventClearCanvas:
		c.mu.Lock()
		c.history = nil
		c.mu.Unlock()
		if c.handlers.OnClear != nil {
			c.handlers.OnClear()
		}

	case domain.EventUserJoined:
		var joined domain.UserJoinedPayload
		if err := json.Unmarshal(env.Data, &joined); err != nil {
			return
		}
		c.mu.Lock()
		c.users[joined.UserID] = domain.User{Name: joined.UserName, Color: joined.Color}
		c.mu.Unlock()
		if c.handlers.OnUserJoined != nil {
			c.handlers.OnUserJoined(joined)
		}

	case domain.EventUserLeft:
		var left domain.UserLeftPayload
		if err := json.Unmarshal(env.Data, &left); err != nil {
			return
		}
		c.mu.Lock()
		delete(c.users, left.UserID)
		c.mu.Unlock()
		if c.handlers.OnUserLeft != nil {
			c.handlers.OnUserLeft(left)
		}

	default:
		slog.Debug("unknown server event", "type", env.Type)
	}
}
