package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_webapp/internal/app"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	httpServer "todo_webapp/internal/http"
	"todo_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	frontend := flag.String("frontend", os.Getenv("FRONTEND_DIR"), "directory with the built frontend")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		handler http.Handler
		a       *app.App
	)
	if !cfg.Validation.Valid {
		// serve the configuration-error view instead of exiting
		r := httpServer.NewEngine(cfg)
		httpServer.RegisterConfigErrorRoutes(r, cfg.Validation)
		handler = r
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		var err error
		a, err = app.New(ctx, cfg)
		if err != nil {
			cancel()
			logger.Fatal("failed to start", "error", err)
		}
		if *migrate {
			applied, err := db.Migrate(ctx, a.DB)
			if err != nil {
				cancel()
				logger.Fatal("migrations failed", "error", err)
			}
			logger.Info("migrations applied", "count", len(applied), "names", applied)
		}
		cancel()

		a.Start()
		handler = a.Router(version, *frontend)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if a != nil {
		if err := a.Close(); err != nil {
			logger.Error("shutdown cleanup failed", "error", err)
		}
	}

	logger.Info("server exited")
}
