package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/evn/absen_backend/internal/pkg/response"
)

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

// HealthHandler runs every check with a shared deadline; any failure turns
// the response into a 503.
func HealthHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = "down"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}
		response.RespondWithJSON(w, code, map[string]any{"status": status, "checks": results})
	}
}
