package http

import (
	"time"

	"todo_webapp/internal/config"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the already constructed pieces the router serves.
type Deps struct {
	Handler *handlers.Handler
	Hub     *ws.Hub
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Version string
	// FrontendDir, when set, is served for every unknown route.
	FrontendDir string
}

type limits struct {
	api, auth, write          int
	apiWin, authWin, writeWin time.Duration
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).Error("panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(500, gin.H{"error": "something went wrong"})
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	return r
}

// RegisterConfigErrorRoutes answers every route with the configuration-error
// view. Liveness and metrics stay up so the process is not restarted in a loop.
func RegisterConfigErrorRoutes(r *gin.Engine, res config.ValidationResult) {
	health := handlers.NewHealthHandler(nil, nil, "")
	r.GET("/healthz", health.Liveness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(middleware.ConfigError(res))
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, d Deps) {
	h := d.Handler
	healthHandler := handlers.NewHealthHandler(d.DB, d.Redis, d.Version)

	lim := limits{
		api: cfg.APIRateLimit, apiWin: cfg.APIRateWindow,
		auth: cfg.AuthRateLimit, authWin: cfg.AuthRateWindow,
		write: cfg.WriteRateLimit, writeWin: cfg.WriteRateWindow,
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(d.Redis, lim.api, lim.apiWin))
	registerAPIRoutes(v1, h, d.Redis, lim)

	// Legacy /api routes
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(d.Redis, lim.api, lim.apiWin))
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, d.Redis, lim)

	// Live task view and session feed
	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, cfg.AllowedOrigin))
	}

	// Frontend static files
	if d.FrontendDir != "" {
		r.StaticFS("/assets", gin.Dir(d.FrontendDir+"/assets", false))
		r.NoRoute(func(c *gin.Context) {
			c.File(d.FrontendDir + "/index.html")
		})
	}
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, rdb *redis.Client, lim limits) {
	session := middleware.Session(h.Identity)
	optional := middleware.OptionalSession(h.Identity)
	authRL := middleware.RedisRateLimit(rdb, lim.auth, lim.authWin)
	writeRL := middleware.UserRateLimit(rdb, "write", lim.write, lim.writeWin)

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authRL, optional, h.SignUp)
		auth.POST("/signin", authRL, optional, h.SignIn)
		auth.POST("/signout", session, h.SignOut)
		auth.GET("/session", optional, h.Session)
		auth.POST("/password/reset", authRL, h.RequestPasswordReset)
		auth.POST("/password/reset/confirm", authRL, h.ConfirmPasswordReset)
		auth.POST("/password/update", session, h.UpdatePassword)
	}

	// Tasks
	tasks := api.Group("/tasks")
	tasks.Use(session)
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.POST("", writeRL, h.CreateTask)
		tasks.PATCH("/:id", writeRL, h.UpdateTask)
		tasks.POST("/:id/toggle", writeRL, h.ToggleTask)
		tasks.DELETE("/:id", writeRL, h.DeleteTask)
	}

	// Projects
	projects := api.Group("/projects")
	projects.Use(session)
	{
		projects.GET("", h.ListProjects)
		projects.POST("", writeRL, h.CreateProject)
		projects.PATCH("/:id", writeRL, h.RenameProject)
		projects.DELETE("/:id", writeRL, h.DeleteProject)
	}

	api.GET("/dashboard", session, h.Dashboard)
	api.GET("/stats", session, h.Statistics)

	// Deployment checklist
	cl := api.Group("/checklist")
	cl.Use(session)
	{
		cl.GET("", h.GetChecklist)
		cl.POST("/items/:id", writeRL, h.UpdateChecklistItem)
		cl.POST("/items/:id/check", writeRL, h.RunChecklistCheck)
		cl.POST("/checks", writeRL, h.RunChecklistChecks)
		cl.POST("/reset", writeRL, h.ResetChecklist)
	}
}
