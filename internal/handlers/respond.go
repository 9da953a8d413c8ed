package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fintrack/backend/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

// requestUserID pulls the authenticated user's id set by the auth
// middleware. Every protected handler refuses to proceed without it.
func requestUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return "", false
	}
	return userID, true
}

// writeServiceError maps core error kinds to HTTP statuses. NotFound covers
// both missing and foreign records; the two are indistinguishable on the
// wire.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		services.SendErrorResponse(w, "Record not found", http.StatusNotFound, nil)
	case errors.Is(err, services.ErrInvalidInput):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, services.ErrStoreUnavailable):
		services.SendErrorResponse(w, "Storage temporarily unavailable", http.StatusServiceUnavailable, nil)
	default:
		services.SendErrorResponse(w, fallback, http.StatusInternalServerError, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
