package service

import (
	"errors"
	"time"

	"todo_webapp/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a session token valid for the issuer's TTL.
func (i *TokenIssuer) Issue(userID, email string) (*domain.Session, error) {
	return i.IssueFor(userID, email, i.ttl)
}

// IssueFor creates a session token valid for ttl.
func (i *TokenIssuer) IssueFor(userID, email string, ttl time.Duration) (*domain.Session, error) {
	if len(i.secret) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	now := i.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		UserID:     userID,
		Email:      email,
		Token:      signed,
		TokenID:    jti,
		ValidUntil: exp.Truncate(time.Second),
	}, nil
}

// Parse verifies tokenString and returns the session it carries.
func (i *TokenIssuer) Parse(tokenString string) (*domain.Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))

	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	return &domain.Session{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Token:      tokenString,
		TokenID:    claims.ID,
		ValidUntil: claims.ExpiresAt.Time,
	}, nil
}
