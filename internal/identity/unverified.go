package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UnverifiedDecoder reads the token payload without checking its signature.
// Only use it behind a trusted issuer boundary; OIDCDecoder is the verifying variant.
type UnverifiedDecoder struct {
	parser *jwt.Parser
}

func NewUnverifiedDecoder() *UnverifiedDecoder {
	return &UnverifiedDecoder{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

// Decode reads only the payload segment. The header is not parsed, so tokens with a missing
// or unknown alg still decode.
func (d *UnverifiedDecoder) Decode(_ context.Context, rawToken string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(rawToken), ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformedToken
	}

	payload, err := d.parser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	claims := &tokenClaims{}
	if err = json.Unmarshal(payload, claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	decoded := Claims{
		Subject:  claims.Subject,
		Audience: claims.Audience,
		Email:    claims.Email,
	}
	if claims.ExpiresAt != nil {
		decoded.ExpiresAt = claims.ExpiresAt.Time
	}
	return decoded, nil
}
