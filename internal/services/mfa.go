package services

import (
	"context"

	"edgeguard/internal/handlers"
	"edgeguard/internal/mfa"
	m "edgeguard/internal/middlewares"
	"edgeguard/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MFAService struct {
	Challenger *mfa.Challenger
}

func (s MFAService) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(m.Validate[models.MFAStartBody]).Post("/start", handlers.CreateHandler(s.Start))
	r.With(m.Validate[models.MFAVerifyBody]).Post("/verify", handlers.CreateHandler(s.Verify))

	return r
}

func (s MFAService) Start(
	ctx context.Context,
	logger *zap.Logger,
	body models.MFAStartBody,
) (models.MFAStartResponse, error) {
	result, err := s.Challenger.Start(ctx, logger, mfa.StartInput{
		IDToken:        body.IDToken,
		UID:            body.UID,
		SessionPresent: models.SessionPresent(body.Session),
		Email:          body.Email,
	})
	if err != nil {
		return models.MFAStartResponse{}, err
	}

	logger.Info("MFA challenge started",
		zap.String("uid", body.UID),
		zap.Bool("reused", result.Reused),
		zap.Bool("created", result.Created))

	return models.MFAStartResponse{OK: true, Reused: result.Reused, Created: result.Created}, nil
}

func (s MFAService) Verify(
	ctx context.Context,
	logger *zap.Logger,
	body models.MFAVerifyBody,
) (models.MFAVerifyResponse, error) {
	err := s.Challenger.Verify(ctx, logger, mfa.VerifyInput{
		IDToken:        body.IDToken,
		UID:            body.UID,
		Code:           string(body.Code),
		SessionPresent: models.SessionPresent(body.Session),
	})
	if err != nil {
		return models.MFAVerifyResponse{}, err
	}

	logger.Info("MFA challenge verified", zap.String("uid", body.UID))
	return models.MFAVerifyResponse{OK: true}, nil
}
