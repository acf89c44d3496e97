package middlewares

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"edgeguard/internal/configuration"
	apierrors "edgeguard/internal/errors"
	"edgeguard/internal/helpers"
	"edgeguard/internal/models"

	"go.uber.org/zap"
)

// DeviceSignature authenticates device requests by an HMAC-SHA256 of the raw body.
// On success the device id goes under models.DeviceIDKey{} and the raw body under
// models.RawBodyKey{}; the request body is restored for later readers.
func DeviceSignature(secret string, maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			deviceID := r.Header.Get(configuration.HeaderDeviceID)
			signature := r.Header.Get(configuration.HeaderSignature)
			if deviceID == "" || signature == "" {
				helpers.RespondWithError(w, http.StatusBadRequest, apierrors.MsgMissingHeaders)
				return
			}

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					helpers.RespondWithError(w, http.StatusRequestEntityTooLarge, apierrors.MsgPayloadTooLarge)
					return
				}
				helpers.RespondWithError(w, http.StatusBadRequest, apierrors.MsgInvalidJSON)
				return
			}

			if !helpers.VerifySignature(raw, secret, signature) {
				GetLogger(r).Warn("Device signature rejected", zap.String("device_id", deviceID))
				helpers.RespondWithError(w, http.StatusUnauthorized, apierrors.MsgInvalidSignature)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			ctx := context.WithValue(r.Context(), models.DeviceIDKey{}, deviceID)
			ctx = context.WithValue(ctx, models.RawBodyKey{}, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
