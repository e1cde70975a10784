package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	"todo_webapp/internal/logger"
)

func main() {
	apply := flag.Bool("apply", false, "apply pending migrations")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	pool := db.MustConnect(cfg.DatabaseURL)
	defer pool.Close()
	ctx := context.Background()

	if !*apply {
		names, err := db.Migrations()
		if err != nil {
			logger.Fatal("list migrations", "error", err)
		}
		applied, err := db.AppliedMigrations(ctx, pool)
		if err != nil {
			// schema_migrations does not exist before the first apply
			applied = map[string]bool{}
		}
		for _, name := range names {
			state := "pending"
			if applied[name] {
				state = "applied"
			}
			fmt.Fprintf(os.Stdout, "%-8s %s\n", state, name)
		}
		return
	}

	done, err := db.Migrate(ctx, pool)
	if err != nil {
		logger.Fatal("migrate", "error", err)
	}
	for _, name := range done {
		fmt.Printf("applied %s\n", name)
	}
	if len(done) == 0 {
		fmt.Println("nothing to apply")
	}
}
