package middleware

import (
	"context"
	"net/http"
	"strings"

	"todo_webapp/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "session"

	UserIDKey  = "user_id"
	SessionKey = "session"
)

// SessionResolver turns a raw token into a live session.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// Session rejects requests without a valid session token. The token comes
// from the session cookie or an Authorization: Bearer header.
func Session(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := resolve(c, sessions)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(UserIDKey, sess.UserID)
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// OptionalSession stores the session when one is presented and never aborts.
func OptionalSession(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, err := resolve(c, sessions); err == nil {
			c.Set(UserIDKey, sess.UserID)
			c.Set(SessionKey, sess)
		}
		c.Next()
	}
}

// TokenFrom returns the bearer token, else the session cookie.
func TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := r.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

func resolve(c *gin.Context, sessions SessionResolver) (*domain.Session, error) {
	token := TokenFrom(c.Request)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return sessions.CurrentSession(c.Request.Context(), token)
}

// SessionFrom returns the session stored by Session or OptionalSession.
func SessionFrom(c *gin.Context) (*domain.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*domain.Session)
	return sess, ok && sess != nil
}
