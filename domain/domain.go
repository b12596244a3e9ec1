package domain

import "encoding/json"

// Event types exchanged between client and server. Each WebSocket text
// message carries exactly one Envelope.
const (
	EventJoin        = "join"
	EventInit        = "init"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventDraw        = "draw"
	EventCursorMove  = "cursor_move"
	EventUndo        = "undo"
	EventRedo        = "redo"
	EventClearCanvas = "clear_canvas"
)

const (
	ToolBrush  = "brush"
	ToolEraser = "eraser"
)

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload in an Envelope and marshals the whole frame.
// A nil payload produces an envelope with no data (e.g. clear_canvas).
func Encode(eventType string, payload any) ([]byte, error) {
	env := Envelope{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous drag gesture. UserID, UserName and Timestamp are
// stamped by the server on receipt; clients send them empty.
type Stroke struct {
	StrokeID  string  `json:"strokeId"`
	Tool      string  `json:"tool"`
	Color     string  `json:"color"`
	Size      int     `json:"size"`
	Points    []Point `json:"points"`
	UserID    string  `json:"userId,omitempty"`
	UserName  string  `json:"userName,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// User is a roster entry for one connected participant.
type User struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type JoinRequest struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// InitPayload is sent to the joining client only and carries the full room
// state so the canvas can be replayed from scratch.
type InitPayload struct {
	UserID   string          `json:"userId"`
	UserName string          `json:"userName"`
	Color    string          `json:"color"`
	History  []Stroke        `json:"history"`
	Users    map[string]User `json:"users"`
}

type UserJoinedPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

type UserLeftPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// CursorPosition is the client-side cursor event; the server re-emits it as
// a CursorBroadcast annotated with the sender's identity.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorBroadcast struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type UndoPayload struct {
	StrokeID string `json:"strokeId"`
}

type RedoPayload struct {
	Stroke Stroke `json:"stroke"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Broadcaster fans messages out to the live connections of a room. A
// connection is registered into a room when its join event is accepted, not
// when the socket is upgraded.
type Broadcaster interface {
	Register(room string, conn Connection)
	Unregister(room string, conn Connection)
	Broadcast(room string, data []byte)
	BroadcastExcept(room string, sender Connection, data []byte)
	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
