package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"todo_webapp/internal/service"
	"todo_webapp/internal/taskview"

	"github.com/gin-gonic/gin"
)

type CreateTaskRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"dueAt"`
	Priority    string     `json:"priority"`
	ProjectID   *string    `json:"projectId"`
}

// UpdateTaskRequest is a partial update. projectId distinguishes absent
// (unchanged) from null (clear).
type UpdateTaskRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	DueAt       *time.Time      `json:"dueAt"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	ProjectID   json.RawMessage `json:"projectId"`
}

// TaskListResponse is the composed view plus the inputs that produced it.
type TaskListResponse struct {
	taskview.Result
	Criteria taskview.Criteria `json:"criteria"`
	Query    string            `json:"query"`
}

// ListTasks serves the composed view: filter pass and search pass over the
// caller's tasks, intersected by ID and split into open and done.
func (h *Handler) ListTasks(c *gin.Context) {
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
	query := c.Query("q")

	tasks, err := h.Tasks.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "load tasks")
		return
	}

	c.JSON(http.StatusOK, TaskListResponse{
		Result:   taskview.View(tasks, crit, query, h.clock()),
		Criteria: crit,
		Query:    strings.TrimSpace(query),
	})
}

func (h *Handler) GetTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	detail, err := h.Tasks.Detail(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "load task")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	t, err := h.Tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		DueAt:       req.DueAt,
		Priority:    req.Priority,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		respondError(c, err, "create task")
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := service.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		DueAt:       req.DueAt,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if len(req.ProjectID) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.ProjectID), []byte("null")) {
			in.ClearProject = true
		} else {
			var id string
			if err := json.Unmarshal(req.ProjectID, &id); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "projectId must be a string or null"})
				return
			}
			in.ProjectID = &id
		}
	}

	t, err := h.Tasks.Update(c.Request.Context(), userID, c.Param("id"), in)
	if err != nil {
		respondError(c, err, "update task")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) ToggleTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	t, err := h.Tasks.ToggleStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "toggle task")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "delete task")
		return
	}
	c.Status(http.StatusNoContent)
}
