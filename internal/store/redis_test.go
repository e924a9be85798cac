package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"

	"github.com/RexySaragih/beaver/internal/app"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := app.Config{RedisAddr: mr.Addr(), RoomTTL: time.Hour}
	r, err := NewRedis(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(r.Close)
	return r, mr
}

func TestNewRedis_ConnectionError(t *testing.T) {
	cfg := app.Config{RedisAddr: "127.0.0.1:0", RoomTTL: time.Hour}
	r, err := NewRedis(context.Background(), cfg, slog.Default())
	assert.Nil(t, r)
	assert.Error(t, err)
}

func TestRedis_PutGetRoundTrip(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	rm, err := r.Put(ctx, "r1", Update{
		Elements: json.RawMessage(`[{"id":"shape1"}]`),
		AppState: json.RawMessage(`{"bg":"dark"}`),
	})
	require.NoError(t, err)
	assert.NotZero(t, rm.LastUpdated)

	got, err := r.Get(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `[{"id":"shape1"}]`, string(got.Elements))
	assert.JSONEq(t, `{"bg":"dark"}`, string(got.AppState))
	assert.Equal(t, rm.LastUpdated, got.LastUpdated)
}

func TestRedis_GetAbsent(t *testing.T) {
	r, _ := newTestRedis(t)
	rm, err := r.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, rm)
}

func TestRedis_PutMergesPartialUpdates(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	_, err := r.Put(ctx, "r1", Update{Elements: json.RawMessage(`[1,2]`)})
	require.NoError(t, err)
	rm, err := r.Put(ctx, "r1", Update{AppState: json.RawMessage(`{"tool":"arrow"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(rm.Elements))
	assert.JSONEq(t, `{"tool":"arrow"}`, string(rm.AppState))
}

func TestRedis_WriteSetsTTL(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	_, err := r.Put(ctx, "r1", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(key("r1")))

	// expired key reads as absent
	mr.FastForward(2 * time.Hour)
	rm, err := r.Get(ctx, "r1")
	assert.NoError(t, err)
	assert.Nil(t, rm)
}

func TestRedis_Collaborators(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.AddCollaborator(ctx, "r1", "A"))
	require.NoError(t, r.AddCollaborator(ctx, "r1", "B"))
	require.NoError(t, r.AddCollaborator(ctx, "r1", "A")) // dup

	rm, err := r.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rm.Collaborators)
	// a lazily created room still serializes usable blobs
	assert.JSONEq(t, `[]`, string(rm.Elements))
	assert.JSONEq(t, `{}`, string(rm.AppState))

	require.NoError(t, r.RemoveCollaborator(ctx, "r1", "A"))
	require.NoError(t, r.RemoveCollaborator(ctx, "r1", "A")) // dup
	require.NoError(t, r.RemoveCollaborator(ctx, "ghost", "A"))

	rm, err = r.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, rm.Collaborators)
}

func TestRedis_ListRoomIDsAndDelete(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	_, err := r.Put(ctx, "r1", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)
	_, err = r.Put(ctx, "r2", Update{Elements: json.RawMessage(`[]`)})
	require.NoError(t, err)

	ids, err := r.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, ids)

	require.NoError(t, r.Delete(ctx, "r1"))
	ids, err = r.ListRoomIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r2"}, ids)
}
