package domain

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Session is the resolved caller identity plus its credential lifetime.
type Session struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	TokenID    string    `json:"-"`
	ValidUntil time.Time `json:"validUntil"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ValidUntil)
}

// PasswordResetToken is stored hashed; the raw token only travels by mail.
type PasswordResetToken struct {
	TokenHash string     `db:"token_hash"`
	UserID    string     `db:"user_id"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
}
