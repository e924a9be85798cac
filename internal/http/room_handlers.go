package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"log/slog"

	"github.com/RexySaragih/beaver/internal/store"
)

type RoomsAPI struct {
	Store store.Store
	Log   *slog.Logger
}

type createRoomResp struct {
	RoomID string `json:"roomId"`
}

type roomInfoResp struct {
	RoomID            string `json:"roomId"`
	CollaboratorCount int    `json:"collaboratorCount"`
	LastUpdated       int64  `json:"lastUpdated"`
}

// Create mints a fresh room id. Nothing is written to the store: the room
// record appears lazily when the first participant joins over the socket.
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	id := NewRoomID()
	a.Log.Info("room.created", "room", id)
	writeJSON(w, createRoomResp{RoomID: id})
}

// Get reports collaborator count + last update for a room
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	rm, err := a.Store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if rm == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	writeJSON(w, roomInfoResp{
		RoomID:            id,
		CollaboratorCount: len(rm.Collaborators),
		LastUpdated:       rm.LastUpdated,
	})
}

// NewRoomID returns an 8-char url-safe token cut from a uuid
func NewRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
