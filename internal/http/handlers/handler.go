package handlers

import (
	"time"

	"todo_webapp/internal/checklist"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	Location      *time.Location
	SecureCookies bool
}

type Handler struct {
	Identity  *service.IdentityService
	Tasks     *service.TaskService
	Projects  *service.ProjectService
	Stats     *service.StatsService
	Checklist *checklist.Engine

	cfg HandlerConfig
	now func() time.Time
}

func NewHandler(identity *service.IdentityService, tasks *service.TaskService, projects *service.ProjectService,
	stats *service.StatsService, engine *checklist.Engine, cfg HandlerConfig) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Handler{
		Identity:  identity,
		Tasks:     tasks,
		Projects:  projects,
		Stats:     stats,
		Checklist: engine,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (h *Handler) clock() time.Time {
	return h.now().In(h.cfg.Location)
}

// getUserID reads the user_id stored by the session middleware.
func getUserID(c *gin.Context) (string, bool) {
	uidVal, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := uidVal.(string)
	return id, ok && id != ""
}
