package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the informative claims of a session token.
//
// They are read without verifying the signature: only the backend can do
// that, the client merely displays them.
type Claims struct {
	Subject   string
	AccountID string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token does not expire
}

// ParseClaims decodes the claims of a token.
func ParseClaims(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("cannot read token claims: %w", err)
	}
	var c Claims
	c.Subject, _ = claims.GetSubject()
	c.AccountID, _ = claims["accountId"].(string)
	c.Role, _ = claims["role"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the token expired at the given time.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
