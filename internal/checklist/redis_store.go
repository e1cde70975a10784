package checklist

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the state blob as a plain Redis string with no expiry.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "checklist:"}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoState
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, blob []byte) error {
	return s.rdb.Set(ctx, s.prefix+key, blob, 0).Err()
}
