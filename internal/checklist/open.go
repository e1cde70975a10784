package checklist

import (
	"fmt"
	"strings"

	"todo_webapp/internal/config"
	"todo_webapp/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenStore picks the store named by cfg.ChecklistStore. The returned
// closer releases any file handles and is never nil.
func OpenStore(cfg *config.Config, rdb *redis.Client) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.ChecklistStore) {
	case "redis":
		if rdb == nil {
			logger.Warn("checklist store is redis but redis is unavailable, falling back to sqlite")
			return openSQLite(cfg.ChecklistSQLitePath)
		}
		return NewRedisStore(rdb), noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "sqlite", "":
		return openSQLite(cfg.ChecklistSQLitePath)
	}
	return nil, noop, fmt.Errorf("unknown CHECKLIST_STORE %q", cfg.ChecklistStore)
}

func openSQLite(path string) (Store, func() error, error) {
	s, err := OpenSQLiteStore(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return s, s.Close, nil
}
