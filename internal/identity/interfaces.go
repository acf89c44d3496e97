package identity

import (
	"context"
	"errors"
	"slices"
	"time"
)

var (
	// ErrMalformedToken is returned when the token cannot be split or decoded.
	ErrMalformedToken = errors.New("malformed identity token")
	// ErrInvalidToken is returned when a verifying decoder rejects the signature, issuer or audience.
	ErrInvalidToken = errors.New("invalid identity token")
)

// Claims is the subset of identity token claims the MFA flow relies on.
// Verified is false when the payload was decoded without checking the signature.
type Claims struct {
	Subject   string
	Audience  []string
	ExpiresAt time.Time
	Email     string
	Verified  bool
}

// HasAudience reports whether aud is one of the token audiences.
func (c Claims) HasAudience(aud string) bool {
	return slices.Contains(c.Audience, aud)
}

// Expired reports whether the token carries an expiry that is not in the future at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// IClaimsDecoder turns a compact identity token into Claims.
type IClaimsDecoder interface {
	Decode(ctx context.Context, rawToken string) (Claims, error)
}
