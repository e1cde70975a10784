package handlers

import (
	"errors"
	"net/http"
	"strings"

	"todo_webapp/internal/checklist"
	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps service errors to status codes. Anything unexpected is
// logged and reported as "failed to <action>".
func respondError(c *gin.Context, err error, action string) {
	var verr *domain.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": verr.Fields})
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": fieldMessages(fieldErrs)})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, checklist.ErrUnknownItem):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrEmailTaken.Error()})
	case errors.Is(err, domain.ErrTokenExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrTokenExpired.Error()})
	case errors.Is(err, checklist.ErrNotAutomated):
		c.JSON(http.StatusBadRequest, gin.H{"error": checklist.ErrNotAutomated.Error()})
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "action", action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

// badRequest answers malformed bodies. Binding validation failures become
// field-keyed 422s.
func badRequest(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": fieldMessages(fieldErrs)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		if field != "" {
			field = strings.ToLower(field[:1]) + field[1:]
		}
		switch fe.Tag() {
		case "required":
			out[field] = "required"
		case "email":
			out[field] = "must be a valid email"
		case "min":
			out[field] = "must be at least " + fe.Param() + " characters"
		case "max":
			out[field] = "must be at most " + fe.Param() + " characters"
		default:
			out[field] = "invalid"
		}
	}
	return out
}
