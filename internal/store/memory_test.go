package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetAbsent(t *testing.T) {
	m := NewMemory(time.Hour)
	rm, err := m.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, rm)
}

func TestMemory_PutMergesPartialUpdates(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	rm, err := m.Put(ctx, "r1", Update{Elements: json.RawMessage(`[{"id":"shape1"}]`)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"shape1"}]`, string(rm.Elements))
	assert.JSONEq(t, `{}`, string(rm.AppState))
	assert.NotZero(t, rm.LastUpdated)

	// appState-only write keeps elements
	rm, err = m.Put(ctx, "r1", Update{AppState: json.RawMessage(`{"bg":"dark"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"shape1"}]`, string(rm.Elements))
	assert.JSONEq(t, `{"bg":"dark"}`, string(rm.AppState))

	got, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rm.LastUpdated, got.LastUpdated)
}

func TestMemory_Collaborators(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	// add creates the room lazily
	require.NoError(t, m.AddCollaborator(ctx, "r1", "A"))
	require.NoError(t, m.AddCollaborator(ctx, "r1", "B"))
	// duplicate add is a no-op
	require.NoError(t, m.AddCollaborator(ctx, "r1", "A"))

	rm, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rm.Collaborators)

	require.NoError(t, m.RemoveCollaborator(ctx, "r1", "A"))
	// removing twice, or from an unknown room, is a no-op
	require.NoError(t, m.RemoveCollaborator(ctx, "r1", "A"))
	require.NoError(t, m.RemoveCollaborator(ctx, "ghost", "A"))

	rm, err = m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, rm.Collaborators)
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Put(ctx, "stale", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)

	// inside the TTL window the room is visible
	ids, err := m.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "stale")

	// past the window it reads as absent and drops out of listings
	now = now.Add(2 * time.Hour)
	rm, err := m.Get(ctx, "stale")
	assert.NoError(t, err)
	assert.Nil(t, rm)
	ids, err = m.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "stale")
}

func TestMemory_ListEvictsExpiredEntries(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Put(ctx, "stale", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)
	_, err = m.Put(ctx, "fresh", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = m.Put(ctx, "fresh", Update{Elements: json.RawMessage(`[1]`)})
	require.NoError(t, err)

	// "stale" ages out; listing must drop it from the map, not just hide it
	now = now.Add(45 * time.Minute)
	ids, err := m.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fresh"}, ids)

	m.mu.RLock()
	_, kept := m.rooms["stale"]
	m.mu.RUnlock()
	assert.False(t, kept)
}

func TestMemory_PutRefreshesTTL(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Put(ctx, "r1", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)

	// a write 40 minutes in extends the deadline past the original one
	now = now.Add(40 * time.Minute)
	_, err = m.Put(ctx, "r1", Update{Elements: json.RawMessage(`[1]`)})
	require.NoError(t, err)

	now = now.Add(40 * time.Minute)
	rm, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, rm)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	_, err := m.Put(ctx, "r1", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, "r1"))

	rm, err := m.Get(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, rm)
	// deleting again is fine
	assert.NoError(t, m.Delete(ctx, "r1"))
}

func TestMemory_GetReturnsCopies(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	_, err := m.Put(ctx, "r1", Update{Elements: json.RawMessage(`[1]`)})
	require.NoError(t, err)

	rm, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	rm.Elements[0] = 'X'
	rm.Collaborators = append(rm.Collaborators, "mutated")

	fresh, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, string(fresh.Elements))
	assert.Empty(t, fresh.Collaborators)
}
