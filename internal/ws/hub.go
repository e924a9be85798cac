package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"log/slog"

	"github.com/RexySaragih/beaver/internal/store"
	"github.com/RexySaragih/beaver/pkg/metrics"
)

// Hub is the room synchronization engine: it owns the session registry and
// the per-room member sets, reads/writes the snapshot store, and fans out
// every accepted event to a room's other members.
type Hub struct {
	log      *slog.Logger
	store    store.Store
	registry *Registry

	mu    sync.RWMutex
	rooms map[string]*room // active rooms by roomId
}

// client is the engine-side handle for one connection. Frames queued on out
// are drained by the transport's write loop; cleanup runs at most once.
type client struct {
	id   string
	out  chan []byte
	once sync.Once
}

func newClient(id string) *client {
	return &client{id: id, out: make(chan []byte, 256)}
}

// send queues a frame without blocking; a full buffer drops it
func (c *client) send(b []byte) {
	select {
	case c.out <- b:
	default:
	}
}

// NewHub sets up the hub with the snapshot store + logger
func NewHub(logger *slog.Logger, st store.Store) *Hub {
	return &Hub{
		log:      logger,
		store:    st,
		registry: NewRegistry(),
		rooms:    map[string]*room{},
	}
}

// room returns the room for an id, creating it if needed
func (h *Hub) room(roomID string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm := h.rooms[roomID]
	if rm == nil {
		rm = newRoom()
		h.rooms[roomID] = rm
	}
	return rm
}

// lookupRoom returns the room for an id, or nil
func (h *Hub) lookupRoom(roomID string) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// dropIfEmpty removes the room from the map once its last member is gone
func (h *Hub) dropIfEmpty(roomID string, rm *room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == rm && rm.size() == 0 {
		delete(h.rooms, roomID)
	}
}

// ServeWS handles a new /ws connection: one goroutine reads frames into
// Handle, the write loop drains the client's outbound queue.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := newClient(uuid.NewString())
	metrics.ConnectionsActive.Inc()
	h.log.Debug("ws.connected", "session", c.id)

	go conn.WriteLoop(ctx, c.out)

	for {
		raw, ok := conn.Read(ctx)
		if !ok {
			break
		}
		h.Handle(ctx, c, raw)
	}

	// Cleanup must survive the request context being gone already.
	h.Disconnect(context.WithoutCancel(ctx), c)
	metrics.ConnectionsActive.Dec()
	_ = conn.Close()
}

// Handle dispatches one inbound frame. All protocol state transitions live
// here rather than in per-event callbacks.
func (h *Hub) Handle(ctx context.Context, c *client, raw []byte) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		c.send(encode(MsgError, ErrorData{Message: ErrInvalidPayload.Error()}))
		return
	}

	switch env.Type {
	case MsgJoinRoom:
		h.handleJoin(ctx, c, env.Data)
	case MsgCanvasUpdate:
		h.handleCanvasUpdate(ctx, c, env.Data)
	case MsgUserTyping, MsgCursorMove:
		h.handlePresence(c, env)
	default:
		c.send(encode(MsgError, ErrorData{Message: ErrInvalidPayload.Error()}))
	}
}

// handleJoin registers the session, pulls the room snapshot, replies with it
// to the caller only, then announces the join to the rest of the room.
func (h *Hub) handleJoin(ctx context.Context, c *client, data json.RawMessage) {
	var req JoinRoomData
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		c.send(encode(MsgError, ErrorData{Message: ErrInvalidPayload.Error()}))
		return
	}
	username := req.Username
	if username == "" {
		username = defaultUsername(c.id)
	}

	rm := h.room(req.RoomID)

	// Collaborator add + snapshot read under the room's write lock, so the
	// snapshot handed back can't interleave with a concurrent update.
	rm.wmu.Lock()
	err := h.store.AddCollaborator(ctx, req.RoomID, c.id)
	var snap *store.Room
	if err == nil {
		snap, err = h.store.Get(ctx, req.RoomID)
		if err != nil || snap == nil {
			// the add landed but the join is failing; take it back so the
			// collaborator count stays honest (best effort)
			_ = h.store.RemoveCollaborator(ctx, req.RoomID, c.id)
		}
	}
	rm.wmu.Unlock()
	if err != nil || snap == nil {
		metrics.StoreErrors.WithLabelValues("join").Inc()
		h.log.Error("ws.join", "room", req.RoomID, "session", c.id, "err", err)
		c.send(encode(MsgError, ErrorData{Message: ErrRoomUnavailable.Error()}))
		h.dropIfEmpty(req.RoomID, rm)
		return
	}

	// Re-join replaces the registry entry; switching rooms detaches from the
	// old one first.
	prev, had := h.registry.Bind(Session{ID: c.id, RoomID: req.RoomID, Username: username})
	if had && prev.RoomID != "" && prev.RoomID != req.RoomID {
		h.detach(ctx, c, prev)
	}
	rm.add(c)

	c.send(encode(MsgRoomJoined, RoomJoinedData{
		RoomID:        req.RoomID,
		Elements:      snap.Elements,
		AppState:      snap.AppState,
		Collaborators: snap.Collaborators,
	}))

	rm.broadcast(c.id, encode(MsgUserJoined, RoomEventData{
		UserID:     c.id,
		Username:   username,
		TotalUsers: rm.size(),
	}))
	metrics.MessagesBroadcast.WithLabelValues(MsgUserJoined).Inc()
	h.log.Info("ws.joined", "room", req.RoomID, "session", c.id, "user", username)
}

// handleCanvasUpdate persists the whole snapshot, then broadcasts it to the
// room's other members. The sender never receives its own update; per-room
// ordering comes from wmu being held across the store write. A failed write
// is reported to the sender only and is never broadcast.
func (h *Hub) handleCanvasUpdate(ctx context.Context, c *client, data json.RawMessage) {
	sess, ok := h.registry.Lookup(c.id)
	if !ok || sess.RoomID == "" {
		c.send(encode(MsgError, ErrorData{Message: ErrNotInRoom.Error()}))
		return
	}

	var upd CanvasUpdateData
	if err := json.Unmarshal(data, &upd); err != nil || nullJSON(upd.Elements) {
		c.send(encode(MsgError, ErrorData{Message: ErrInvalidPayload.Error()}))
		return
	}
	if nullJSON(upd.AppState) {
		upd.AppState = nil // explicit null means "unset", keep the stored blob
	}

	rm := h.room(sess.RoomID)
	rm.wmu.Lock()
	saved, err := h.store.Put(ctx, sess.RoomID, store.Update{
		Elements: upd.Elements,
		AppState: upd.AppState,
	})
	rm.wmu.Unlock()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("update").Inc()
		h.log.Error("ws.update", "room", sess.RoomID, "session", c.id, "err", err)
		c.send(encode(MsgError, ErrorData{Message: ErrPersistFailed.Error()}))
		return
	}

	rm.broadcast(c.id, encode(MsgCanvasUpdated, CanvasUpdatedData{
		Elements:  upd.Elements,
		AppState:  upd.AppState,
		UserID:    c.id,
		Timestamp: saved.LastUpdated,
	}))
	metrics.MessagesBroadcast.WithLabelValues(MsgCanvasUpdated).Inc()
	h.log.Debug("ws.updated", "room", sess.RoomID, "session", c.id)
}

// handlePresence forwards typing / cursor signals to the rest of the room.
// Best-effort: stale or unjoined sessions are dropped silently.
func (h *Hub) handlePresence(c *client, env Envelope) {
	sess, ok := h.registry.Lookup(c.id)
	if !ok || sess.RoomID == "" {
		return
	}
	rm := h.lookupRoom(sess.RoomID)
	if rm == nil || !rm.has(c.id) {
		return
	}

	p := PresenceData{UserID: c.id, Username: sess.Username}
	outType := ""
	switch env.Type {
	case MsgUserTyping:
		var d UserTypingData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return
		}
		p.IsTyping = &d.IsTyping
		outType = MsgUserTyping
	case MsgCursorMove:
		var d CursorMoveData
		if err := json.Unmarshal(env.Data, &d); err != nil || nullJSON(d.Position) {
			return
		}
		p.Position = d.Position
		outType = MsgCursorMoved
	}

	rm.broadcast(c.id, encode(outType, p))
	metrics.MessagesBroadcast.WithLabelValues(outType).Inc()
}

// Disconnect tears down the session: registry entry, room membership, store
// collaborator record, departure announcement. Safe to call repeatedly, and
// store failures here are logged and swallowed so teardown never blocks.
func (h *Hub) Disconnect(ctx context.Context, c *client) {
	c.once.Do(func() {
		sess, ok := h.registry.Remove(c.id)
		if !ok {
			return // never joined
		}
		h.detach(ctx, c, sess)
		h.log.Debug("ws.disconnected", "session", c.id, "room", sess.RoomID)
	})
}

// detach removes the session from one room's membership + collaborator set
// and announces the departure to whoever is left.
func (h *Hub) detach(ctx context.Context, c *client, sess Session) {
	if sess.RoomID == "" {
		return
	}
	rm := h.room(sess.RoomID)

	// The collaborator removal is a read-modify-write against the store, so
	// it takes the same per-room lock as join and update; otherwise a
	// departure racing a join writes back a stale collaborator list.
	rm.wmu.Lock()
	err := h.store.RemoveCollaborator(ctx, sess.RoomID, c.id)
	rm.wmu.Unlock()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("leave").Inc()
		h.log.Error("ws.leave", "room", sess.RoomID, "session", c.id, "err", err)
	}

	remaining := rm.remove(c)
	if remaining == 0 {
		h.dropIfEmpty(sess.RoomID, rm)
		return
	}
	rm.broadcast(c.id, encode(MsgUserLeft, RoomEventData{
		UserID:     c.id,
		Username:   sess.Username,
		TotalUsers: remaining,
	}))
	metrics.MessagesBroadcast.WithLabelValues(MsgUserLeft).Inc()
}

// defaultUsername derives a label from the session id, e.g. "User-3f2a"
func defaultUsername(id string) string {
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	return "User-" + id
}
