package ws

import "sync"

// room is the in-process view of one roomId: the member set used for
// fan-out plus the write lock that serializes snapshot-store writes so
// updates to a room land in a single total order.
type room struct {
	wmu sync.Mutex // held across store writes for this room

	mu      sync.RWMutex
	members map[string]*client // active connections by session id
}

// newRoom creates an empty room
func newRoom() *room { return &room{members: map[string]*client{}} }

// add registers a connection; re-adding the same session is a no-op
func (r *room) add(c *client) {
	r.mu.Lock()
	r.members[c.id] = c
	r.mu.Unlock()
}

// remove drops a connection and reports how many members remain
func (r *room) remove(c *client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, c.id)
	return len(r.members)
}

// has reports whether the session is a member
func (r *room) has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// size returns the member count
func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// broadcast sends a frame to every member except the excluded session,
// without blocking: a slow recipient's full buffer drops the frame for that
// recipient only.
func (r *room) broadcast(exclude string, frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.members {
		if id == exclude {
			continue
		}
		c.send(frame)
	}
}
