package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether the bearer token's exp claim is in the past.
// The token is decoded without signature verification: only the backend can
// verify it, the client just needs the expiry. Any parse failure or missing
// exp claim counts as expired, so ambiguous tokens force re-authentication
// instead of granting access.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}
