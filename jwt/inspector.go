package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector reads the expiry of a token without verifying its signature. The
// console never holds the credential service's signing key; it only needs to
// know when a stored token has lapsed so the session can be dropped.
type Inspector struct {
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewInspector returns an inspector that tolerates leeway of clock skew.
func NewInspector(leeway time.Duration) *Inspector {
	if leeway < 0 {
		leeway = 0
	}
	return &Inspector{leeway: leeway, now: time.Now, parser: jwt.NewParser()}
}

// Expiry returns the exp claim of token. ok is false for opaque tokens and
// tokens without exp.
func (i *Inspector) Expiry(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token carries an exp claim that is in the past.
// Opaque tokens never expire from the console's point of view.
func (i *Inspector) Expired(token string) bool {
	exp, ok := i.Expiry(token)
	if !ok {
		return false
	}
	return i.now().After(exp.Add(i.leeway))
}
