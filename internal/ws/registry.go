package ws

import "sync"

// Session is one live connection's room membership.
type Session struct {
	ID       string
	RoomID   string
	Username string
}

// Registry maps session ids to their room membership for the lifetime of the
// process. It is owned by the hub; nothing outside the ws package touches it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]Session{}}
}

// Bind records (or replaces) the session entry, so re-joining from the same
// connection never duplicates it. Returns the previous entry if one existed.
func (r *Registry) Bind(s Session) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.sessions[s.ID]
	r.sessions[s.ID] = s
	return prev, ok
}

// Lookup returns the session entry for id
func (r *Registry) Lookup(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the entry and reports whether it existed, which lets the
// disconnect path run exactly once per session.
func (r *Registry) Remove(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
