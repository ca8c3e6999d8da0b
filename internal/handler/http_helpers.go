package handler

import (
	"encoding/json"
	"net/http"

	"newspaper-reader/internal/domain"
	apperrors "newspaper-reader/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps err through the application error table.
func writeDomainError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", err, "type", appErr.Type, "status", appErr.StatusCode)
	}
	writeError(w, appErr.StatusCode, appErr.Message)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
