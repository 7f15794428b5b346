package handler

import (
	"context"
	"net/http"
)

// userIDHeader identifies the requesting reader. The library has no
// accounts; a stable client-chosen ID is enough to key history.
const userIDHeader = "X-User-ID"

// UserMiddleware requires the user ID header on history-backed routes
// and stores it in the request context.
func UserMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(userIDHeader)
			if userID == "" {
				writeError(w, http.StatusBadRequest, "X-User-ID header required")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
