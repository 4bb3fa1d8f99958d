package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/storykeeper/internal/common"
)

// checkTokenNotExpired inspects the bearer token's exp claim without
// verifying its signature (the server does that). Catching an expired
// token here turns a doomed request into an immediate ErrUnauthorized,
// which matters during a drain: an expired session must stop the replay,
// not burn an attempt per draft.
//
// Tokens that are empty or not JWTs pass through untouched; the server
// stays the authority on what it accepts.
func checkTokenNotExpired(token string) error {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("%w: bearer token expired at %s", common.ErrUnauthorized, exp.Format(time.RFC3339))
	}
	return nil
}
