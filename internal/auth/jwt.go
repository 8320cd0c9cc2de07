package auth

import (
	"errors"
	"time"

	"tukio/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims matches the access tokens issued by the auth backend: sub is the
// user id and app_role carries the application role.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	AppRole string `json:"app_role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// HasRole reports whether either role claim equals role.
func (c *Claims) HasRole(role string) bool {
	return role != "" && (c.AppRole == role || c.Role == role)
}

// GenerateAccessToken signs a token the way the auth backend does. Used by
// local tooling and tests; production tokens come from the auth backend.
func GenerateAccessToken(cfg *config.JWTConfig, userID, email, appRole string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   email,
		Role:    "authenticated",
		AppRole: appRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

var ErrInvalidToken = errors.New("invalid token")

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
