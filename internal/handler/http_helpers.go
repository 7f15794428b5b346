package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"secure-library/internal/domain"
	"secure-library/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the requesting user ID from request context
func GetUserFromContext(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(userContextKey).(string)
	return userID, ok && userID != ""
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps domain and application errors onto HTTP status
// codes. Unknown errors are reported as 500 without leaking the cause.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, domain.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "Book not found")
	case stderrors.Is(err, domain.ErrUserIDRequired):
		writeError(w, http.StatusBadRequest, "User ID is required")
	default:
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			writeError(w, appErr.StatusCode, appErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
