package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo_webapp/internal/config"
	"todo_webapp/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured is returned when the environment validator rejected the
// configuration; no connection is attempted.
var ErrNotConfigured = errors.New("database not configured")

// Open builds a connection pool for the data service, gated by cfg.Validation.
func Open(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg == nil || !cfg.Validation.Valid {
		return nil, ErrNotConfigured
	}
	return Connect(ctx, cfg.DatabaseURL)
}

// Connect creates and pings a pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "max_conns", poolCfg.MaxConns)
	return db, nil
}

// MustConnect is Connect for command-line tools: it exits on failure.
func MustConnect(dsn string) *pgxpool.Pool {
	db, err := Connect(context.Background(), dsn)
	if err != nil {
		logger.Fatal("failed to connect database", "error", err)
	}
	return db
}
