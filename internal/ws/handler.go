package ws

import (
	"context"
	"net/http"

	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades to a live-view connection. The token comes from the
// token query parameter, a bearer header or the session cookie.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = middleware.TokenFrom(c.Request)
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		if hub.deps.Sessions == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sessions unavailable"})
			return
		}

		sess, err := hub.deps.Sessions.CurrentSession(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(hub, conn, sess, token)
		go client.Run(context.WithoutCancel(c.Request.Context()))
	}
}
