// Command checklist inspects and updates the deployment checklist from a
// shell, using the same store and checks as the server.
package main

import (
	"context"
	"os"

	"todo_webapp/internal/app"
	"todo_webapp/internal/checklist"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	"todo_webapp/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// env is the opened checklist plus what has to be released afterwards.
type env struct {
	engine  *checklist.Engine
	closers []func()
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// openEnv loads config and opens the checklist store. The database is
// optional: without it the database checks simply fail.
func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	e := &env{}
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unavailable, database checks will fail", "error", err)
		} else {
			pool = p
			e.closers = append(e.closers, p.Close)
		}
	}

	rdb := app.OpenRedis(cfg)
	if rdb != nil {
		e.closers = append(e.closers, func() { _ = rdb.Close() })
	}

	engine, closeStore, err := app.OpenChecklist(cfg, pool, rdb)
	if err != nil {
		e.close()
		return nil, err
	}
	e.closers = append(e.closers, func() { _ = closeStore() })
	e.engine = engine
	return e, nil
}

func main() {
	opts := &rootOptions{}
	err := newRootCmd(opts).Execute()
	opts.close()
	if err != nil {
		os.Exit(1)
	}
}
