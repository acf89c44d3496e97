package core

import (
	"context"

	"edgeguard/internal/configuration"
	"edgeguard/internal/identity"
	"edgeguard/internal/models"

	"go.uber.org/zap"
)

func NewDecoder(ctx context.Context, config models.AuthConfiguration) identity.IClaimsDecoder {
	if config.Mode != configuration.AuthModeOIDC {
		zap.L().Warn("Identity tokens are decoded without signature verification")
		return identity.NewUnverifiedDecoder()
	}

	decoder, err := identity.NewOIDCDecoder(ctx, config.Issuer, config.Audience)
	if err != nil {
		zap.L().Fatal("Failed to load OIDC provider", zap.String("issuer", config.Issuer), zap.Error(err))
	}
	return decoder
}
