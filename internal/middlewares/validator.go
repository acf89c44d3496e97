package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "edgeguard/internal/errors"
	"edgeguard/internal/helpers"
	"edgeguard/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate decodes the JSON body into T, checks its validate tags and stores it under models.BodyKey{}.
// Presence of individual fields is left to the handler so it can answer with a precise message.
func Validate[T any](next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			helpers.RespondWithError(w, http.StatusBadRequest, apierrors.MsgInvalidJSON)
			return
		}

		if err := validate.Struct(body); err != nil {
			GetLogger(r).Debug("Request body rejected", zap.Error(err))
			helpers.RespondWithError(w, http.StatusBadRequest, apierrors.MsgInvalidBody)
			return
		}

		ctx := context.WithValue(r.Context(), models.BodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
