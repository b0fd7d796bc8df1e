package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"separapp/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessExpires:    time.Minute,
		RefreshExpires:   time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := SignAccessToken(cfg, 42, "maria@example.com", 1)
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)

	id, ok := claims.UserID()
	require.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "maria@example.com", claims.Correo)
	assert.Equal(t, 1, claims.Rol)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	cfg := testConfig()

	access, err := SignAccessToken(cfg, 1, "a@b.com", 1)
	require.NoError(t, err)
	refresh, err := SignRefreshToken(cfg, 1, "a@b.com", 1)
	require.NoError(t, err)

	_, err = ParseRefreshToken(cfg, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.AccessExpires = -time.Minute

	token, err := SignAccessToken(cfg, 1, "a@b.com", 1)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := ParseAccessToken(testConfig(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserIDInvalidSubject(t *testing.T) {
	c := &Claims{}
	c.Subject = "abc"
	_, ok := c.UserID()
	assert.False(t, ok)

	c.Subject = ""
	_, ok = c.UserID()
	assert.False(t, ok)
}
