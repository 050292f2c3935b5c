package todo

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lists expire with their session after a week of inactivity.
const defaultTTL = 7 * 24 * time.Hour

// Store reads and writes per-session todo lists. An empty session id is a
// no-op on both paths: sub-agent scopes run with a cleared session id and
// must never see or mutate the parent conversation's list.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]Item, error)
	Set(ctx context.Context, sessionID string, items []Item) error
}

func key(sessionID string) string { return "todo:" + sessionID }

// RedisStore keeps lists in the shared cache, one JSON array per session.
// Cache failures degrade to an empty list on read and are swallowed with a
// warning on write; the todo mechanism is advisory and must never take an
// execution down.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, ttl: defaultTTL}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]Item, error) {
	if sessionID == "" {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, key(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Todo read failed, returning empty list", "session_id", sessionID, "error", err)
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		slog.Warn("Todo payload corrupt, returning empty list", "session_id", sessionID, "error", err)
		return nil, nil
	}
	return items, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, items []Item) error {
	if sessionID == "" {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key(sessionID), payload, s.ttl).Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Todo write failed, ignoring", "session_id", sessionID, "error", err)
	}
	return nil
}

// MemoryStore is the in-process Store used by tests and single-node runs.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string][]Item
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]Item)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]Item, error) {
	if sessionID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.lists[sessionID]
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID string, items []Item) error {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]Item, len(items))
	copy(stored, items)
	s.lists[sessionID] = stored
	return nil
}
