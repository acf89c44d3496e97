package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
)

// OIDCDecoder verifies signature, issuer, audience and expiry against the issuer's published keys.
type OIDCDecoder struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCDecoder discovers the issuer configuration. For Firebase the issuer is
// https://securetoken.google.com/<project> and the audience is the project id.
func NewOIDCDecoder(ctx context.Context, issuer string, audience string) (*OIDCDecoder, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity issuer %s: %w", issuer, err)
	}

	config := &oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""}
	zap.L().Info("Identity tokens verified against issuer", zap.String("issuer", issuer))

	return NewOIDCDecoderFromVerifier(provider.Verifier(config)), nil
}

func NewOIDCDecoderFromVerifier(verifier *oidc.IDTokenVerifier) *OIDCDecoder {
	return &OIDCDecoder{verifier: verifier}
}

func (d *OIDCDecoder) Decode(ctx context.Context, rawToken string) (Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if strings.Count(rawToken, ".") != 2 {
		return Claims{}, ErrMalformedToken
	}

	token, err := d.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var extra struct {
		Email string `json:"email"`
	}
	if err = token.Claims(&extra); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	return Claims{
		Subject:   token.Subject,
		Audience:  token.Audience,
		ExpiresAt: token.Expiry,
		Email:     extra.Email,
		Verified:  true,
	}, nil
}
