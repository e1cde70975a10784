package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/events"
	"todo_webapp/internal/service/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityFixture struct {
	svc    *IdentityService
	users  *servicetest.Users
	mailer *servicetest.Mailer
	bus    *events.Bus
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	f := &identityFixture{
		users:  servicetest.NewUsers(),
		mailer: &servicetest.Mailer{},
		bus:    events.NewBus(),
	}
	f.svc = NewIdentityService(
		f.users,
		servicetest.NewResets(),
		NewTokenIssuer("test-secret", time.Hour),
		NewMemoryRevoker(),
		f.mailer,
		f.bus,
		"http://localhost:8080/",
	)
	return f
}

func TestIdentity_SignUpSignInSignOut(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignUp(ctx, " Alice@Example.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	sub := f.bus.Subscribe(sess.UserID)
	defer sub.Close()

	again, err := f.svc.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)
	assert.Equal(t, events.SignedIn, (<-sub.C).Kind)

	current, err := f.svc.CurrentSession(ctx, again.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", current.Email)

	require.NoError(t, f.svc.SignOut(ctx, current))
	assert.Equal(t, events.SignedOut, (<-sub.C).Kind)

	_, err = f.svc.CurrentSession(ctx, again.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// the first session is unaffected by signing out the second
	_, err = f.svc.CurrentSession(ctx, sess.Token)
	assert.NoError(t, err)
}

func TestIdentity_SignUpValidation(t *testing.T) {
	f := newIdentityFixture(t)

	_, err := f.svc.SignUp(context.Background(), "not-an-email", "123")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")

	_, err = f.svc.SignUp(context.Background(), "bob@example.com", "secret1")
	require.NoError(t, err)
	_, err = f.svc.SignUp(context.Background(), "BOB@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestIdentity_SignInRejectsBadCredentials(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "carol@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.svc.SignIn(ctx, "carol@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentity_CurrentSessionRejectsGarbage(t *testing.T) {
	f := newIdentityFixture(t)
	for _, tok := range []string{"", "   ", "abc.def.ghi"} {
		_, err := f.svc.CurrentSession(context.Background(), tok)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated, "token %q", tok)
	}
}

func TestIdentity_PasswordResetFlow(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, "dave@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, f.mailer.Sent())

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "dave@example.com"))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "dave@example.com", sent[0].Email)

	link, err := url.Parse(sent[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "/update-password", link.Path)
	token := link.Query().Get("token")
	require.Len(t, token, 64)

	sess, err := f.svc.ConfirmPasswordReset(ctx, token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(resetSessionTTL), sess.ValidUntil, 5*time.Second)

	_, err = f.svc.ConfirmPasswordReset(ctx, token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	require.NoError(t, f.svc.UpdatePassword(ctx, sess.UserID, "brand-new"))
	_, err = f.svc.SignIn(ctx, "dave@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "dave@example.com", "brand-new")
	assert.NoError(t, err)
}

func TestIdentity_UpdatePasswordTooShort(t *testing.T) {
	f := newIdentityFixture(t)
	err := f.svc.UpdatePassword(context.Background(), "whoever", "abc")
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTokenIssuer_ExpiryAndSecret(t *testing.T) {
	issuer := NewTokenIssuer("s1", time.Minute)
	sess, err := issuer.Issue("u1", "u1@example.com")
	require.NoError(t, err)

	parsed, err := issuer.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, sess.TokenID, parsed.TokenID)

	other := NewTokenIssuer("s2", time.Minute)
	_, err = other.Parse(sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.Parse(sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = NewTokenIssuer("", time.Minute).Issue("u1", "")
	assert.Error(t, err)
}

func TestMemoryRevoker(t *testing.T) {
	r := NewMemoryRevoker()
	ctx := context.Background()
	require.NoError(t, r.Revoke(ctx, "a", time.Now().Add(time.Minute)))
	assert.True(t, r.Revoked(ctx, "a"))
	assert.False(t, r.Revoked(ctx, "b"))

	r.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, r.Revoked(ctx, "a"))
}
