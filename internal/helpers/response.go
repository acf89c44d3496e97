package helpers

import (
	"encoding/json"
	"net/http"

	"edgeguard/internal/models"

	"go.uber.org/zap"
)

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func RespondWithError(w http.ResponseWriter, status int, message string) {
	RespondWithJSON(w, status, models.Error{OK: false, Error: message})
}
