package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/middleware"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/pkg/response"
	"github.com/evn/absen_backend/internal/pkg/validation"
	services "github.com/evn/absen_backend/internal/services/auth"
)

type Authenticator interface {
	AuthenticateKey(ctx context.Context, key, ip string) (*models.Device, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type AuthHandler struct {
	auth     Authenticator
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAuthHandler(auth Authenticator, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validation.New(),
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// DeviceAuthHandler exchanges a kiosk's device key for a device token.
func (h *AuthHandler) DeviceAuthHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceKey string `json:"device_key" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed", validation.Fields(err))
		return
	}

	device, token, err := h.auth.AuthenticateKey(r.Context(), body.DeviceKey, middleware.ClientIP(r))
	if errors.Is(err, services.ErrInvalidDeviceKey) {
		h.logger.Warn().Str("ip", middleware.ClientIP(r)).Msg("device key rejected")
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid device key")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("device auth failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"device": device,
	})
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request data")
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if err := h.validate.Struct(body); err != nil {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed", validation.Fields(err))
		return
	}

	user, token, err := h.auth.Login(r.Context(), body.Email, body.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		response.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, services.ErrInactiveAccount):
		response.RespondWithError(w, http.StatusForbidden, "Account is inactive")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}
