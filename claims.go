package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Claims is the decoded structured form of a bearer credential: the
// subject identity it was issued for and the instant it stops being
// valid. Claims are ephemeral, derived on demand from the raw token
// and never persisted on their own.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ExpiresAtMillis returns the expiry as epoch milliseconds.
func (c Claims) ExpiresAtMillis() int64 {
	return c.ExpiresAt.UnixMilli()
}

// Expired reports whether the expiry is no longer strictly in the future.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// DecodeCredential parses a raw bearer token into Claims without verifying
// its signature. Decoding proves nothing about authenticity; it only
// extracts the fields needed for local expiry and UX decisions. The
// authoritative check happens on the server that issued the token.
func DecodeCredential(raw string) (Claims, error) {
	parser := jwt.NewParser()

	claims := &tokenClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Claims{}, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims.RegisteredClaims.Subject == "" {
		return Claims{}, ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "missing subject claim",
		})
	}

	if claims.RegisteredClaims.ExpiresAt == nil {
		return Claims{}, ErrTokenMalformed.WithMetadata(map[string]any{
			"reason": "missing expiry claim",
		})
	}

	return Claims{
		Subject:   claims.RegisteredClaims.Subject,
		ExpiresAt: claims.RegisteredClaims.ExpiresAt.Time,
	}, nil
}
