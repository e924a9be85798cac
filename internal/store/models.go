package store

import "encoding/json"

// Room is the persisted snapshot record for one collaboration room.
// Elements and AppState are owned by the canvas layer and kept opaque here.
type Room struct {
	Elements      json.RawMessage `json:"elements"`
	AppState      json.RawMessage `json:"appState"`
	Collaborators []string        `json:"collaborators"`
	LastUpdated   int64           `json:"lastUpdated"` // epoch millis of last accepted write
}

// Update carries the fields of a partial room write. Nil fields keep the
// stored value; Put always refreshes LastUpdated and the record TTL.
type Update struct {
	Elements      json.RawMessage
	AppState      json.RawMessage
	Collaborators []string
}

// emptyRoom returns a fresh record with non-nil blobs so a first join
// serializes as {elements: [], appState: {}} rather than nulls.
func emptyRoom() *Room {
	return &Room{
		Elements:      json.RawMessage(`[]`),
		AppState:      json.RawMessage(`{}`),
		Collaborators: []string{},
	}
}
