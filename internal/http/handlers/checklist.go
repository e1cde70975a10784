package handlers

import (
	"net/http"

	"todo_webapp/internal/checklist"

	"github.com/gin-gonic/gin"
)

type ChecklistItemRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type ChecklistResponse struct {
	Categories []checklist.CategoryItems `json:"categories,omitempty"`
	State      checklist.State           `json:"state"`
	Stats      checklist.Stats           `json:"stats"`
	Result     *checklist.CheckResult    `json:"result,omitempty"`
	Results    []checklist.CheckResult   `json:"results,omitempty"`
}

func (h *Handler) checklistResponse(s checklist.State) ChecklistResponse {
	return ChecklistResponse{State: s, Stats: checklist.ComputeStats(h.Checklist.Catalog(), s)}
}

// GetChecklist returns the catalog grouped by category with the current state.
func (h *Handler) GetChecklist(c *gin.Context) {
	s, st := h.Checklist.Stats(c.Request.Context())
	c.JSON(http.StatusOK, ChecklistResponse{
		Categories: h.Checklist.Catalog().ByCategory(),
		State:      s,
		Stats:      st,
	})
}

func (h *Handler) UpdateChecklistItem(c *gin.Context) {
	var req ChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := h.Checklist.Update(c.Request.Context(), c.Param("id"), *req.Completed)
	if err != nil {
		respondError(c, err, "update checklist item")
		return
	}
	c.JSON(http.StatusOK, h.checklistResponse(s))
}

// RunChecklistCheck runs one automated check. A failed check is still a 200;
// the outcome is in result.
func (h *Handler) RunChecklistCheck(c *gin.Context) {
	res, s, err := h.Checklist.RunAutomatedCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "run check")
		return
	}
	out := h.checklistResponse(s)
	out.Result = &res
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RunChecklistChecks(c *gin.Context) {
	results, s := h.Checklist.RunAllChecks(c.Request.Context())
	out := h.checklistResponse(s)
	out.Results = results
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ResetChecklist(c *gin.Context) {
	c.JSON(http.StatusOK, h.checklistResponse(h.Checklist.Reset(c.Request.Context())))
}
