package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenClaims are the claims read from an access token.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseToken extracts claims from a JWT without verifying its signature.
// The token was just issued by the console over TLS; only its expiry is used.
func ParseToken(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	token, _, err := parser.ParseUnverified(tokenString, &jwt.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	tc := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		tc.Subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, errors.Wrap(err, "invalid exp claim")
	}
	if exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// ExpiresWithin reports whether the token expires within d of now.
// Tokens without an exp claim never expire.
func (c *TokenClaims) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(c.ExpiresAt)
}
