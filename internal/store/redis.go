package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"log/slog"

	"github.com/RexySaragih/beaver/internal/app"
)

type Redis struct {
	rdb *redis.Client
	log *slog.Logger
	ttl time.Duration
}

// NewRedis connects to redis and verifies connectivity
func NewRedis(ctx context.Context, cfg app.Config, log *slog.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{rdb: rdb, log: log, ttl: cfg.RoomTTL}, nil
}

// Get fetches a room record, (nil, nil) if absent
func (r *Redis) Get(ctx context.Context, roomID string) (*Room, error) {
	raw, err := r.rdb.Get(ctx, key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rm Room
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	return &rm, nil
}

// Put merges u into the stored record and writes it back with a fresh TTL.
// The whole record is written in one SET so readers never see a partial one.
func (r *Redis) Put(ctx context.Context, roomID string, u Update) (*Room, error) {
	cur, err := r.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = emptyRoom()
	}
	merge(cur, u, time.Now().UnixMilli())

	raw, err := json.Marshal(cur)
	if err != nil {
		return nil, err
	}
	if err := r.rdb.Set(ctx, key(roomID), raw, r.ttl).Err(); err != nil {
		return nil, err
	}
	return cur, nil
}

// AddCollaborator adds sessionID to the room's collaborator set, creating
// the room if needed. No write happens if the id is already present.
func (r *Redis) AddCollaborator(ctx context.Context, roomID, sessionID string) error {
	cur, err := r.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if cur == nil {
		cur = emptyRoom()
	}
	ids, changed := addID(cur.Collaborators, sessionID)
	if !changed {
		return nil
	}
	_, err = r.Put(ctx, roomID, Update{Collaborators: ids})
	return err
}

// RemoveCollaborator drops sessionID from the room's collaborator set.
// A missing room or id is a no-op.
func (r *Redis) RemoveCollaborator(ctx context.Context, roomID, sessionID string) error {
	cur, err := r.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if cur == nil {
		return nil
	}
	ids, changed := removeID(cur.Collaborators, sessionID)
	if !changed {
		return nil
	}
	_, err = r.Put(ctx, roomID, Update{Collaborators: ids})
	return err
}

// ListRoomIDs scans for all room keys
func (r *Redis) ListRoomIDs(ctx context.Context) ([]string, error) {
	var out []string
	iter := r.rdb.Scan(ctx, 0, key("*"), 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(keyPrefix):])
	}
	return out, iter.Err()
}

// Delete removes a room record
func (r *Redis) Delete(ctx context.Context, roomID string) error {
	return r.rdb.Del(ctx, key(roomID)).Err()
}

// Close shuts down the redis connection
func (r *Redis) Close() { _ = r.rdb.Close() }

const keyPrefix = "beaver:room:"

// key namespacing for room records
func key(roomID string) string { return keyPrefix + roomID }
