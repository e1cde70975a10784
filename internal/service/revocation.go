package service

import (
	"context"
	"sync"
	"time"

	"todo_webapp/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Revoker remembers signed-out session IDs until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) bool
}

// NewRevoker returns a Redis-backed revoker, or an in-process one when rdb
// is nil.
func NewRevoker(rdb *redis.Client) Revoker {
	if rdb == nil {
		return NewMemoryRevoker()
	}
	return &RedisRevoker{rdb: rdb}
}

type RedisRevoker struct {
	rdb *redis.Client
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

// Revoked fails open: a Redis error is logged and the token is accepted.
func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) bool {
	n, err := r.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		logger.Warn("revocation lookup failed", "error", err)
		return false
	}
	return n > 0
}

type MemoryRevoker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, id)
		}
	}
	m.entries[tokenID] = until
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, tokenID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[tokenID]
	return ok && m.now().Before(exp)
}
