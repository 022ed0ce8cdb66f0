package redis

// Package redis provides the Redis-backed session snapshot registry.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/europgreen/portal-gateway/internal/ports"
)

// SnapshotStore persists gateway session snapshots in Redis with TTL
// semantics derived from the snapshot expiry.
type SnapshotStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a Redis-backed snapshot store.
func NewSnapshotStore(client redis.UniversalClient) *SnapshotStore {
	return &SnapshotStore{client: client, prefix: "session:"}
}

// NewSnapshotStoreWithPrefix creates a snapshot store with a custom key
// prefix.
func NewSnapshotStoreWithPrefix(client redis.UniversalClient, prefix string) *SnapshotStore {
	return &SnapshotStore{client: client, prefix: prefix}
}

func (s *SnapshotStore) Save(ctx context.Context, snap ports.SessionSnapshot) error {
	if snap.ID == "" {
		return errors.New("snapshot ID cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	ttl := time.Until(snap.ExpiresAt)
	if ttl <= 0 {
		// Already expired, don't save it.
		return errors.New("snapshot is expired")
	}

	return s.client.Set(ctx, s.prefix+snap.ID, data, ttl).Err()
}

func (s *SnapshotStore) Get(ctx context.Context, id string) (ports.SessionSnapshot, error) {
	if id == "" {
		return ports.SessionSnapshot{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.SessionSnapshot{}, ErrNotFound
		}
		return ports.SessionSnapshot{}, fmt.Errorf("redis get: %w", err)
	}

	var snap ports.SessionSnapshot
	if unmarshalErr := json.Unmarshal([]byte(data), &snap); unmarshalErr != nil {
		return ports.SessionSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", unmarshalErr)
	}

	// Redis TTL normally evicts expired records before this runs.
	if time.Now().After(snap.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return ports.SessionSnapshot{}, fmt.Errorf("cleanup expired snapshot: %w", deleteErr)
		}
		return ports.SessionSnapshot{}, ErrNotFound
	}

	return snap, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// ErrNotFound is returned when a snapshot is not found.
var ErrNotFound = ports.ErrSnapshotNotFound
