package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/events"
	"todo_webapp/internal/logger"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
	// resetSessionTTL bounds the session handed out in exchange for a reset
	// token; it only needs to last until the new password is submitted.
	resetSessionTTL = 15 * time.Minute
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type ResetTokenStore interface {
	Create(ctx context.Context, t *domain.PasswordResetToken) error
	Consume(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

var validate = validator.New()

// IdentityService is the sign-in/sign-up/session surface of the app.
type IdentityService struct {
	users   UserStore
	resets  ResetTokenStore
	tokens  *TokenIssuer
	revoker Revoker
	mailer  Mailer
	bus     *events.Bus
	baseURL string
	now     func() time.Time
}

func NewIdentityService(users UserStore, resets ResetTokenStore, tokens *TokenIssuer, revoker Revoker, mailer Mailer, bus *events.Bus, baseURL string) *IdentityService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &IdentityService{
		users:   users,
		resets:  resets,
		tokens:  tokens,
		revoker: revoker,
		mailer:  mailer,
		bus:     bus,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func validateCredentials(email, password string) error {
	verr := &domain.ValidationError{}
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		verr.Add("password", "must be at least 6 characters")
	}
	return verr.OrNil()
}

func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("user signed up", "user_id", u.ID)
	return s.startSession(u.ID, u.Email, 0)
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.startSession(u.ID, u.Email, 0)
}

func (s *IdentityService) startSession(userID, email string, ttl time.Duration) (*domain.Session, error) {
	var (
		sess *domain.Session
		err  error
	)
	if ttl > 0 {
		sess, err = s.tokens.IssueFor(userID, email, ttl)
	} else {
		sess, err = s.tokens.Issue(userID, email)
	}
	if err != nil {
		return nil, err
	}
	s.publish(events.SignedIn, userID)
	return sess, nil
}

// SignOut revokes the session token until its natural expiry.
func (s *IdentityService) SignOut(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.revoker.Revoke(ctx, sess.TokenID, sess.ValidUntil); err != nil {
		logger.FromContext(ctx).Warn("token revocation failed", "error", err)
	}
	s.publish(events.SignedOut, sess.UserID)
	return nil
}

// CurrentSession resolves a bearer/cookie token into a live session.
func (s *IdentityService) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) || s.revoker.Revoked(ctx, sess.TokenID) {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed
// silently so callers cannot probe for accounts.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		verr := &domain.ValidationError{}
		verr.Add("email", "must be a valid email address")
		return verr
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	raw, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resets.Create(ctx, &domain.PasswordResetToken{
		TokenHash: hashResetToken(raw),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}); err != nil {
		return err
	}

	link := s.baseURL + "/update-password?token=" + url.QueryEscape(raw)
	return s.mailer.SendPasswordReset(ctx, u.Email, link)
}

// ConfirmPasswordReset exchanges a reset token for an ordinary session that
// expires after resetSessionTTL. The caller is expected to set a new password
// with it, but the session is not restricted to that.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenExpired
	}
	userID, err := s.resets.Consume(ctx, hashResetToken(token), s.now())
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.startSession(u.ID, u.Email, resetSessionTTL)
}

func (s *IdentityService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		verr := &domain.ValidationError{}
		verr.Add("password", "must be at least 6 characters")
		return verr
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *IdentityService) publish(kind events.Kind, userID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Kind: kind, UserID: userID, At: s.now().UTC()})
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
