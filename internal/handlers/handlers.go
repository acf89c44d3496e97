package handlers

import (
	"context"
	"net/http"

	apierrors "edgeguard/internal/errors"
	"edgeguard/internal/helpers"
	m "edgeguard/internal/middlewares"
	"edgeguard/internal/models"

	"go.uber.org/zap"
)

type CreateTargetFunc[In any, Out any] func(ctx context.Context, logger *zap.Logger, body In) (Out, error)

// CreateHandler runs create with the body validated upstream by middlewares.Validate[In].
func CreateHandler[In any, Out any](create CreateTargetFunc[In, Out]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := m.GetLogger(r)

		body, ok := r.Context().Value(models.BodyKey{}).(In)
		if !ok {
			logger.Error("Request body missing from context")
			helpers.RespondWithError(w, http.StatusInternalServerError, apierrors.MsgInternal)
			return
		}

		resp, err := create(r.Context(), logger, body)
		if err != nil {
			HandleError(w, logger, err)
			return
		}

		helpers.RespondWithJSON(w, http.StatusOK, resp)
	}
}

// HandleError writes the error envelope. Server-side causes are logged and never returned.
func HandleError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, message := apierrors.StatusAndMessage(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.String("reason", message))
	}
	helpers.RespondWithError(w, status, message)
}

func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	helpers.RespondWithJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	helpers.RespondWithJSON(w, http.StatusNotFound, map[string]string{"error": apierrors.MsgNotFound})
}
