package service

import (
	"context"
	"testing"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/auth"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_LoginAndRevalidate(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()

	require.NoError(t, e.auth.SeedAdmin(ctx, "admin", "admin123"))
	require.NoError(t, e.auth.SeedAdmin(ctx, "admin", "ignored"))

	_, err := e.auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := e.auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", res.User.Username)
	assert.NotEmpty(t, res.ExpiresAt)

	sess, err := auth.ParseSession("test-secret", res.Token)
	require.NoError(t, err)
	require.NoError(t, e.auth.Revalidate(ctx, sess))

	me, err := e.auth.Me(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, me.ID)

	refreshed, err := e.auth.Refresh(ctx, sess)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	stale := *sess
	stale.UserID = "999"
	assert.ErrorIs(t, e.auth.Revalidate(ctx, &stale), ErrInvalidCredentials)

	gone := *sess
	gone.Username = "removed"
	assert.ErrorIs(t, e.auth.Revalidate(ctx, &gone), ErrInvalidCredentials)

	e.auth.now = func() time.Time { return sess.ExpiresAt.Add(time.Second) }
	assert.ErrorIs(t, e.auth.Revalidate(ctx, sess), ErrInvalidCredentials)
}

func TestAuthService_ResetPassword(t *testing.T) {
	e := newEnv(t, false)
	ctx := context.Background()
	require.NoError(t, e.auth.SeedAdmin(ctx, "admin", "admin123"))

	require.NoError(t, e.auth.ResetPassword(ctx, "admin", "n3w-pass"))
	_, err := e.auth.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, "admin", "n3w-pass")
	require.NoError(t, err)

	assert.ErrorIs(t, e.auth.ResetPassword(ctx, "admin", ""), ErrInvalidInput)
	assert.ErrorIs(t, e.auth.ResetPassword(ctx, "nobody", "x"), repository.ErrNotFound)
}
