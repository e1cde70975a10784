package handlers

import (
	"net/http"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

type PasswordUpdateRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) setSessionCookie(c *gin.Context, sess *domain.Session) {
	maxAge := int(time.Until(sess.ValidUntil).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", h.cfg.SecureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cfg.SecureCookies, true)
}

// alreadySignedIn answers 409 for sign-in and sign-up when a session exists.
func alreadySignedIn(c *gin.Context) bool {
	if _, ok := middleware.SessionFrom(c); ok {
		c.JSON(http.StatusConflict, gin.H{"error": "already signed in"})
		return true
	}
	return false
}

func (h *Handler) SignUp(c *gin.Context) {
	if alreadySignedIn(c) {
		return
	}
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.Identity.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "sign up")
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusCreated, gin.H{"session": sess})
}

func (h *Handler) SignIn(c *gin.Context) {
	if alreadySignedIn(c) {
		return
	}
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.Identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "sign in")
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) SignOut(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.Identity.SignOut(c.Request.Context(), sess); err != nil {
		respondError(c, err, "sign out")
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Session returns the caller's session, or null when signed out.
func (h *Handler) Session(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	// the raw token stays in the cookie
	out := *sess
	out.Token = ""
	c.JSON(http.StatusOK, gin.H{"session": out})
}

// RequestPasswordReset answers 202 for every well-formed address, registered
// or not, so accounts cannot be discovered. A malformed address is a 422.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Identity.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "request password reset")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.Identity.ConfirmPasswordReset(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err, "confirm password reset")
		return
	}
	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req PasswordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Identity.UpdatePassword(c.Request.Context(), userID, req.Password); err != nil {
		respondError(c, err, "update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
