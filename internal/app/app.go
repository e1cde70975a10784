// Package app wires configuration, storage, services and transport into one
// explicit application context.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"todo_webapp/internal/checklist"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	"todo_webapp/internal/events"
	httpserver "todo_webapp/internal/http"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/service"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Bus    *events.Bus

	Identity  *service.IdentityService
	Tasks     *service.TaskService
	Projects  *service.ProjectService
	Stats     *service.StatsService
	Checklist *checklist.Engine
	Scheduler *checklist.Scheduler
	Hub       *ws.Hub

	closers []func() error
}

// New connects to Postgres (and Redis when configured) and builds every
// service. The configuration must have passed validation.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: pool, Bus: events.NewBus()}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	a.Redis = OpenRedis(cfg)
	if a.Redis != nil {
		rdb := a.Redis
		a.closers = append(a.closers, rdb.Close)
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	users := repository.NewUserRepository(pool)
	tasks := repository.NewTaskRepository(pool)
	projects := repository.NewProjectRepository(pool)

	a.Identity = service.NewIdentityService(
		users,
		repository.NewResetTokenRepository(pool),
		tokens,
		service.NewRevoker(a.Redis),
		service.LogMailer{},
		a.Bus,
		cfg.AppBaseURL,
	)
	a.Tasks = service.NewTaskService(tasks, projects)
	a.Projects = service.NewProjectService(projects)
	a.Stats = service.NewStatsService(tasks, cfg.Location)

	engine, closeStore, err := OpenChecklist(cfg, pool, a.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Checklist = engine
	a.closers = append(a.closers, closeStore)

	if cfg.ChecklistCheckInterval > 0 {
		a.Scheduler = checklist.NewScheduler(engine, cfg.Location)
		if _, err := a.Scheduler.Every(cfg.ChecklistCheckInterval); err != nil {
			a.Close()
			return nil, fmt.Errorf("schedule checklist checks: %w", err)
		}
	}

	a.Hub = ws.NewHub(ws.Deps{
		Tasks:    a.Tasks,
		Sessions: a.Identity,
		Bus:      a.Bus,
		Debounce: cfg.SearchDebounce,
		Location: cfg.Location,
	})
	return a, nil
}

// OpenRedis connects the shared Redis client used by the rate limiters,
// token revocation and the checklist store. It returns nil when Redis is not
// configured or unreachable.
func OpenRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := middleware.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb == nil {
		logger.Warn("redis unreachable, continuing without it", "addr", cfg.RedisAddr)
	}
	return rdb
}

// OpenChecklist builds the checklist engine with the built-in checks and the
// configured store. pool and rdb may be nil.
func OpenChecklist(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client) (*checklist.Engine, func() error, error) {
	catalog, err := checklist.NewCatalog(checklist.DefaultChecks(os.LookupEnv, pool))
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := checklist.OpenStore(cfg, rdb)
	if err != nil {
		return nil, nil, err
	}
	return checklist.NewEngine(catalog, store), closeStore, nil
}

// Router builds the HTTP engine serving this app.
func (a *App) Router(version, frontendDir string) *gin.Engine {
	h := handlers.NewHandler(a.Identity, a.Tasks, a.Projects, a.Stats, a.Checklist, handlers.HandlerConfig{
		Location:      a.Config.Location,
		SecureCookies: !a.Config.DevMode,
	})
	r := httpserver.NewEngine(a.Config)
	httpserver.RegisterRoutes(r, a.Config, httpserver.Deps{
		Handler:     h,
		Hub:         a.Hub,
		DB:          a.DB,
		Redis:       a.Redis,
		Version:     version,
		FrontendDir: frontendDir,
	})
	return r
}

// Start runs background jobs.
func (a *App) Start() {
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
}

// Close stops background work and releases connections in reverse order.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Hub != nil {
		a.Hub.CloseAll()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
