package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"

	"github.com/evn/absen_backend/internal/pkg/response"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	deviceContextKey contextKey = "device"
)

// UserIDFromContext returns the dashboard user id put there by AddUserIDToContext.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

// claimID reads an id claim that may arrive as a string or a JSON number.
func claimID(claims map[string]interface{}, key string) int64 {
	switch v := claims[key].(type) {
	case float64:
		return int64(v)
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// AddUserIDToContext copies user_id from a verified JWT into the request context.
func AddUserIDToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || claims == nil {
				next.ServeHTTP(w, r)
				return
			}
			if userID := claimID(claims, "user_id"); userID != 0 {
				r = r.WithContext(context.WithValue(r.Context(), userIDContextKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireScope rejects requests whose token does not carry scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			if s, _ := claims["scope"].(string); s != scope {
				response.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
