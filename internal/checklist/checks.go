package checklist

import (
	"context"
	"errors"
	"strings"
	"time"

	"todo_webapp/internal/config"
	"todo_webapp/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Item IDs with built-in checks.
const (
	ItemEnvRequiredVars  = "env-required-vars"
	ItemDBConnectionPool = "db-connection-pool"
	ItemDBMigrations     = "db-migrations"
)

const checkTimeout = 5 * time.Second

// EnvCheck passes when every required environment variable is set.
func EnvCheck(lookup config.LookupFunc) CheckFunc {
	return func(context.Context) (bool, error) {
		res := config.Validate(lookup)
		if !res.Valid {
			return false, errors.New(strings.ReplaceAll(res.ErrorMessage(), "\n", "; "))
		}
		return true, nil
	}
}

// PoolCheck passes when the database answers a ping.
func PoolCheck(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) (bool, error) {
		if pool == nil {
			return false, db.ErrNotConfigured
		}
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return false, err
		}
		return true, nil
	}
}

// MigrationsCheck passes when every embedded migration has been applied.
func MigrationsCheck(pool *pgxpool.Pool) CheckFunc {
	return func(ctx context.Context) (bool, error) {
		if pool == nil {
			return false, db.ErrNotConfigured
		}
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		pending, err := db.Pending(ctx, pool)
		if err != nil {
			return false, err
		}
		if len(pending) > 0 {
			return false, errors.New("pending migrations: " + strings.Join(pending, ", "))
		}
		return true, nil
	}
}

// DefaultChecks wires the built-in checks. pool may be nil, in which case
// the database checks fail until a database is configured.
func DefaultChecks(lookup config.LookupFunc, pool *pgxpool.Pool) map[string]CheckFunc {
	return map[string]CheckFunc{
		ItemEnvRequiredVars:  EnvCheck(lookup),
		ItemDBConnectionPool: PoolCheck(pool),
		ItemDBMigrations:     MigrationsCheck(pool),
	}
}
