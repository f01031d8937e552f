package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/clock"
	"studiorit/internal/models"
)

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	token, exp, err := auth.IssueToken(&models.User{ID: "u1", Role: models.RoleCoordinator})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)

	_, err = NewAuthService("other", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = auth.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Expired(t *testing.T) {
	auth := NewAuthService("secret", time.Minute)
	token, _, err := auth.IssueToken(&models.User{ID: "u1"})
	require.NoError(t, err)

	clock.NowFunc = func() time.Time { return time.Now().UTC().Add(10 * time.Minute) }
	t.Cleanup(func() { clock.NowFunc = func() time.Time { return time.Now().UTC() } })

	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Passwords(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(hash, "hunter22"))
	assert.False(t, auth.CheckPassword(hash, "hunter23"))
}
