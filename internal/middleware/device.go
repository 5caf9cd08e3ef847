package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/pkg/response"
	authService "github.com/evn/absen_backend/internal/services/auth"
)

const (
	HeaderDeviceID  = "X-Device-ID"
	HeaderDeviceKey = "X-Device-Key"
)

type DeviceAuthenticator interface {
	ActiveDevice(ctx context.Context, deviceID int64) (*models.Device, error)
	VerifyDeviceKey(ctx context.Context, deviceID int64, key string) (*models.Device, error)
	Touch(ctx context.Context, d *models.Device, ip string)
}

func DeviceFromContext(ctx context.Context) (*models.Device, bool) {
	d, ok := ctx.Value(deviceContextKey).(*models.Device)
	return d, ok
}

// ClientIP is the request's remote host, after chi's RealIP has run.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireDevice authenticates a kiosk either by a device-scoped JWT or by the
// X-Device-ID / X-Device-Key header pair, and stores the device in context.
func RequireDevice(auth DeviceAuthenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device, err := resolveDevice(r, auth)
			switch {
			case errors.Is(err, authService.ErrInvalidDeviceKey):
				response.RespondWithError(w, http.StatusUnauthorized, "Invalid device credentials")
				return
			case err != nil:
				logger.Error().Err(err).Msg("device lookup failed")
				response.RespondWithError(w, http.StatusInternalServerError, "Database error")
				return
			}

			auth.Touch(r.Context(), device, ClientIP(r))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceContextKey, device)))
		})
	}
}

func resolveDevice(r *http.Request, auth DeviceAuthenticator) (*models.Device, error) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err == nil && token != nil {
		if s, _ := claims["scope"].(string); s != authService.ScopeDevice {
			return nil, authService.ErrInvalidDeviceKey
		}
		id := claimID(claims, "device_id")
		if id == 0 {
			return nil, authService.ErrInvalidDeviceKey
		}
		return auth.ActiveDevice(r.Context(), id)
	}

	rawID, key := r.Header.Get(HeaderDeviceID), r.Header.Get(HeaderDeviceKey)
	if rawID == "" || key == "" {
		return nil, authService.ErrInvalidDeviceKey
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, authService.ErrInvalidDeviceKey
	}
	return auth.VerifyDeviceKey(r.Context(), id, key)
}
