package middleware

import (
	"net/http"

	"todo_webapp/internal/config"

	"github.com/gin-gonic/gin"
)

// ConfigError answers every request with the configuration-error view.
func ConfigError(res config.ValidationResult) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":   "server is not configured",
			"message": res.ErrorMessage(),
			"missing": res.Missing,
			"empty":   res.Empty,
		})
	}
}
