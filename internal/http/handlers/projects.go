package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ProjectRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListProjects(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	projects, err := h.Projects.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "load projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *Handler) CreateProject(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Projects.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err, "create project")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) RenameProject(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.Projects.Rename(c.Request.Context(), userID, c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err, "rename project")
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProject leaves the project's tasks in place with their reference.
func (h *Handler) DeleteProject(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Projects.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "delete project")
		return
	}
	c.Status(http.StatusNoContent)
}
