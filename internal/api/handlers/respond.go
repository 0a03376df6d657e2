package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the AppError taxonomy onto HTTP status codes.
// Internal details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeRateLimited:
			respondWithError(w, http.StatusTooManyRequests, appErr.Message)
			return
		}
	}

	observability.LoggerFromContext(r.Context()).Error().
		Err(err).
		Str("path", r.URL.Path).
		Msg("Request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
