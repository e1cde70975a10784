package handlers

import (
	"net/http"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/service"
	"todo_webapp/internal/taskview"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type DashboardResponse struct {
	Open          []*domain.Task         `json:"open"`
	Done          []*domain.Task         `json:"done"`
	ActiveFilters int                    `json:"activeFilters"`
	Cards         service.DashboardCards `json:"cards"`
	Projects      []*domain.Project      `json:"projects"`
	Criteria      taskview.Criteria      `json:"criteria"`
}

// Dashboard loads tasks and projects concurrently and returns the composed
// open and done lists. The cards always cover every task.
func (h *Handler) Dashboard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	crit, err := taskview.ParseCriteria(c.Request.URL.Query(), h.cfg.Location)
	if err != nil {
		respondError(c, err, "parse filters")
		return
	}

	var (
		tasks    []*domain.Task
		projects []*domain.Project
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		tasks, err = h.Tasks.List(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = h.Projects.List(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, err, "load dashboard")
		return
	}

	view := taskview.View(tasks, crit, c.Query("q"), h.clock())
	c.JSON(http.StatusOK, DashboardResponse{
		Open:          view.Open,
		Done:          view.Done,
		ActiveFilters: view.ActiveFilters,
		Cards:         service.Cards(tasks),
		Projects:      projects,
		Criteria:      crit,
	})
}

func (h *Handler) Statistics(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	st, err := h.Stats.Statistics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "load statistics")
		return
	}
	c.JSON(http.StatusOK, st)
}
