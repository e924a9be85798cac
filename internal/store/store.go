package store

import "context"

// Store is the snapshot store for room records. Implementations hold no
// business logic: the hub serializes writes per room, the store only has to
// make each Get see a fully written record.
//
// Get returns (nil, nil) for an absent room. Put merges only the supplied
// Update fields into the stored record (creating it if absent), stamps
// LastUpdated, refreshes the TTL, and returns the merged record.
type Store interface {
	Get(ctx context.Context, roomID string) (*Room, error)
	Put(ctx context.Context, roomID string, u Update) (*Room, error)
	AddCollaborator(ctx context.Context, roomID, sessionID string) error
	RemoveCollaborator(ctx context.Context, roomID, sessionID string) error
	ListRoomIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, roomID string) error
	Close()
}

// merge applies u to cur in place. Collaborators nil means "keep"; an empty
// non-nil slice is a real write (last collaborator left).
func merge(cur *Room, u Update, nowMillis int64) {
	if u.Elements != nil {
		cur.Elements = u.Elements
	}
	if u.AppState != nil {
		cur.AppState = u.AppState
	}
	if u.Collaborators != nil {
		cur.Collaborators = u.Collaborators
	}
	cur.LastUpdated = nowMillis
}

// addID appends id if absent, preserving join order.
func addID(ids []string, id string) ([]string, bool) {
	for _, v := range ids {
		if v == id {
			return ids, false
		}
	}
	return append(ids, id), true
}

// removeID drops id if present.
func removeID(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
