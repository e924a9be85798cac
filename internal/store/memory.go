package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory is an in-process Store for dev runs (STORE=memory) and tests.
// Records expire lazily: a Get past the deadline behaves as absent, matching
// the redis TTL semantics closely enough for the engine not to care.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*memEntry
	ttl   time.Duration
	now   func() time.Time // swappable in tests
}

type memEntry struct {
	room     Room
	deadline time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{rooms: map[string]*memEntry{}, ttl: ttl, now: time.Now}
}

func (m *Memory) Get(_ context.Context, roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.rooms[roomID]
	if e == nil || m.now().After(e.deadline) {
		return nil, nil
	}
	rm := cloneRoom(&e.room)
	return rm, nil
}

func (m *Memory) Put(_ context.Context, roomID string, u Update) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.current(roomID)
	merge(cur, u, m.now().UnixMilli())
	m.rooms[roomID] = &memEntry{room: *cur, deadline: m.now().Add(m.ttl)}
	return cloneRoom(cur), nil
}

func (m *Memory) AddCollaborator(_ context.Context, roomID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.current(roomID)
	ids, changed := addID(cur.Collaborators, sessionID)
	if changed || m.rooms[roomID] == nil {
		merge(cur, Update{Collaborators: ids}, m.now().UnixMilli())
		m.rooms[roomID] = &memEntry{room: *cur, deadline: m.now().Add(m.ttl)}
	}
	return nil
}

func (m *Memory) RemoveCollaborator(_ context.Context, roomID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.rooms[roomID]
	if e == nil || m.now().After(e.deadline) {
		return nil
	}
	ids, changed := removeID(e.room.Collaborators, sessionID)
	if !changed {
		return nil
	}
	merge(&e.room, Update{Collaborators: ids}, m.now().UnixMilli())
	e.deadline = m.now().Add(m.ttl)
	return nil
}

func (m *Memory) ListRoomIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, e := range m.rooms {
		if m.now().After(e.deadline) {
			// expired entries read as absent, so the sweeper never sees
			// them; evict here or the map grows forever
			delete(m.rooms, id)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}

// current returns a copy of the live record for roomID, or a fresh one.
// Callers hold m.mu.
func (m *Memory) current(roomID string) *Room {
	e := m.rooms[roomID]
	if e == nil || m.now().After(e.deadline) {
		return emptyRoom()
	}
	return cloneRoom(&e.room)
}

// cloneRoom copies the record so callers never alias stored state.
func cloneRoom(r *Room) *Room {
	cp := *r
	cp.Elements = append(json.RawMessage(nil), r.Elements...)
	cp.AppState = append(json.RawMessage(nil), r.AppState...)
	cp.Collaborators = append([]string(nil), r.Collaborators...)
	return &cp
}
