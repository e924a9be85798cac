package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"type":"join-room","data":{"roomId":"r1","username":"alice"}}`))
	require.NoError(t, err)
	assert.Equal(t, MsgJoinRoom, env.Type)

	var d JoinRoomData
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "r1", d.RoomID)
	assert.Equal(t, "alice", d.Username)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{``, `null`, `42`, `"join-room"`, `{}`, `{"data":{}}`} {
		_, err := decodeEnvelope([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidPayload, "frame %q", raw)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	frame := encode(MsgRoomJoined, RoomJoinedData{
		RoomID:        "r1",
		Elements:      json.RawMessage(`[]`),
		AppState:      json.RawMessage(`{}`),
		Collaborators: []string{"A"},
	})

	env, err := decodeEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, MsgRoomJoined, env.Type)
	var d RoomJoinedData
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, []string{"A"}, d.Collaborators)
}

func TestPresenceDataOmitsUnsetFields(t *testing.T) {
	frame := encode(MsgCursorMoved, PresenceData{
		UserID:   "A",
		Username: "alice",
		Position: json.RawMessage(`{"x":1,"y":2}`),
	})
	// cursor frames must not carry a typing flag
	assert.NotContains(t, string(frame), "isTyping")

	typing := true
	frame = encode(MsgUserTyping, PresenceData{UserID: "A", Username: "alice", IsTyping: &typing})
	assert.NotContains(t, string(frame), "position")
}
