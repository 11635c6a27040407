// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/middleware"
)

func newManager(t *testing.T, secret string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.JWTConfig{
		Secret:      secret,
		TokenExpire: 24 * time.Hour,
		Issuer:      "studio-thielman",
	})
	require.NoError(t, err)
	return m
}

func TestJWTRoundTrip(t *testing.T) {
	m := newManager(t, "s3cret")

	token, expiresAt, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID:   "u-1",
		Username: "ruben",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ruben", claims.Username)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	token, _, err := newManager(t, "one").CreateAccessToken(
		middleware.AccessTokenClaims{UserID: "u", Username: "n"},
	)
	require.NoError(t, err)

	_, err = newManager(t, "two").VerifyAccessToken(context.Background(), token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestJWTRejectsExpired(t *testing.T) {
	m := newManager(t, "s3cret")
	m.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	token, _, err := m.CreateAccessToken(
		middleware.AccessTokenClaims{UserID: "u", Username: "n"},
	)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, core.ErrTokenExpired) || errors.Is(err, core.ErrTokenInvalid),
	)
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(config.JWTConfig{TokenExpire: time.Hour})
	assert.Error(t, err)
}
