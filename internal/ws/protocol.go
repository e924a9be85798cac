package ws

import (
	"encoding/json"
	"errors"
)

// Inbound message types
const (
	MsgJoinRoom     = "join-room"
	MsgCanvasUpdate = "canvas-update"
	MsgUserTyping   = "user-typing"
	MsgCursorMove   = "cursor-move"
)

// Outbound message types
const (
	MsgRoomJoined    = "room-joined"
	MsgCanvasUpdated = "canvas-updated"
	MsgUserJoined    = "user-joined"
	MsgUserLeft      = "user-left"
	MsgCursorMoved   = "cursor-moved"
	MsgError         = "error"
	// user-typing is echoed outbound under its inbound name
)

// Envelope is the wire frame in both directions: {"type": ..., "data": ...}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinRoomData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

// CanvasUpdateData carries the whole snapshot; elements/appState are opaque
// blobs owned by the drawing UI.
type CanvasUpdateData struct {
	Elements json.RawMessage `json:"elements"`
	AppState json.RawMessage `json:"appState,omitempty"`
}

type UserTypingData struct {
	IsTyping bool `json:"isTyping"`
}

type CursorMoveData struct {
	Position json.RawMessage `json:"position"`
}

type RoomJoinedData struct {
	RoomID        string          `json:"roomId"`
	Elements      json.RawMessage `json:"elements"`
	AppState      json.RawMessage `json:"appState"`
	Collaborators []string        `json:"collaborators"`
}

type CanvasUpdatedData struct {
	Elements  json.RawMessage `json:"elements"`
	AppState  json.RawMessage `json:"appState,omitempty"`
	UserID    string          `json:"userId"`
	Timestamp int64           `json:"timestamp"`
}

type PresenceData struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	IsTyping *bool           `json:"isTyping,omitempty"`
	Position json.RawMessage `json:"position,omitempty"`
}

type RoomEventData struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	TotalUsers int    `json:"totalUsers"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// Client-visible errors; infrastructure failures are mapped to these before
// reaching the connection.
var (
	ErrNotInRoom       = errors.New("not in a room")
	ErrRoomUnavailable = errors.New("failed to join room")
	ErrPersistFailed   = errors.New("failed to update canvas")
	ErrInvalidPayload  = errors.New("invalid payload")
)

// nullJSON reports whether a raw blob is missing or an explicit JSON null;
// json.RawMessage keeps the literal bytes "null" rather than staying nil.
func nullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// decodeEnvelope parses one inbound frame
func decodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		return Envelope{}, ErrInvalidPayload
	}
	return env, nil
}

// encode builds an outbound frame; payloads are our own structs, so a
// marshal failure is a programming error and yields an empty error frame.
func encode(typ string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte(`{}`)
	}
	b, _ := json.Marshal(Envelope{Type: typ, Data: raw})
	return b
}
