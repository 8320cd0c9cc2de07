package auth

import (
	"testing"
	"time"

	"tukio/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret", Issuer: "tukio-auth", AdminRole: "admin", AccessExpiry: time.Hour}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, "u1", "u1@example.com", "admin")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole(""))
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testJWTConfig()

	other := *cfg
	other.Secret = "other"
	forged, err := GenerateAccessToken(&other, "u1", "", "")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := *cfg
	wrongIssuer.Issuer = "someone-else"
	tok, err := GenerateAccessToken(&wrongIssuer, "u1", "", "")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := *cfg
	expired.AccessExpiry = -time.Minute
	tok, err = GenerateAccessToken(&expired, "u1", "", "")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    cfg.Issuer,
	}})
	s, err := noSub.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken(cfg, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
