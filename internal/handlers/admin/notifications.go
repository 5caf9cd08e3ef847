package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/middleware"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/notify"
	"github.com/evn/absen_backend/internal/pkg/response"
	"github.com/evn/absen_backend/internal/pkg/validation"
	"github.com/evn/absen_backend/internal/repositories"
)

type LogStore interface {
	ListLogs(ctx context.Context, f repositories.LogFilter) ([]models.NotificationLog, error)
	CountSince(ctx context.Context, since time.Time) (map[models.LogStatus]int, error)
}

type TestSender interface {
	TestSend(ctx context.Context, channelID int64, contact, message, photoURL string) (notify.SendResult, error)
}

type NotificationHandler struct {
	logs     LogStore
	sender   TestSender
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

func NewNotificationHandler(logs LogStore, sender TestSender, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		logs:     logs,
		sender:   sender,
		validate: validation.New(),
		now:      time.Now,
		logger:   logger.With().Str("handler", "notifications").Logger(),
	}
}

func queryInt(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func (h *NotificationHandler) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	f := repositories.LogFilter{Status: models.LogStatus(r.URL.Query().Get("status"))}
	switch f.Status {
	case "", models.LogPending, models.LogSent, models.LogFailed, models.LogDelivered:
	default:
		response.RespondWithError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	var err error
	var limit, offset int64
	for key, dst := range map[string]*int64{
		"channel_id": &f.ChannelID, "user_id": &f.UserID, "limit": &limit, "offset": &offset,
	} {
		if *dst, err = queryInt(r, key); err != nil || *dst < 0 {
			response.RespondWithError(w, http.StatusBadRequest, "Invalid "+key)
			return
		}
	}
	f.Limit, f.Offset = int(limit), int(offset)

	logs, err := h.logs.ListLogs(r.Context(), f)
	if err != nil {
		h.logger.Error().Err(err).Msg("list logs failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if logs == nil {
		logs = []models.NotificationLog{}
	}
	response.RespondWithJSON(w, http.StatusOK, logs)
}

// StatsHandler counts log rows per status over the last ?hours (default 24).
func (h *NotificationHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours")
	if err != nil || hours < 0 {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid hours")
		return
	}
	if hours == 0 {
		hours = 24
	}
	counts, err := h.logs.CountSince(r.Context(), h.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		h.logger.Error().Err(err).Msg("log stats failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]any{"hours": hours, "counts": counts})
}

type TestSendRequest struct {
	ChannelID    int64  `json:"channel_id" validate:"required,gt=0"`
	ContactValue string `json:"contact_value" validate:"required"`
	Message      string `json:"message" validate:"required,max=4096"`
	PhotoURL     string `json:"photo_url" validate:"omitempty,url"`
}

func (h *NotificationHandler) TestSendHandler(w http.ResponseWriter, r *http.Request) {
	var req TestSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed", validation.Fields(err))
		return
	}

	log := h.logger.With().Int64("channel_id", req.ChannelID).Logger()
	if uid, ok := middleware.UserIDFromContext(r.Context()); ok {
		log = log.With().Int64("requested_by", uid).Logger()
	}

	result, err := h.sender.TestSend(r.Context(), req.ChannelID, req.ContactValue, req.Message, req.PhotoURL)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		response.RespondWithError(w, http.StatusNotFound, "Channel not found")
		return
	case errors.Is(err, notify.ErrChannelUnavailable):
		response.RespondWithError(w, http.StatusServiceUnavailable, "Channel is not available")
		return
	case errors.Is(err, notify.ErrRateLimitExceeded):
		response.RespondWithError(w, http.StatusTooManyRequests, "Channel rate limit exceeded")
		return
	case err != nil:
		log.Error().Err(err).Msg("test send failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to send")
		return
	}

	code := http.StatusOK
	if !result.Success {
		log.Warn().Str("error", result.Error).Msg("test send rejected by provider")
		code = http.StatusBadGateway
	}
	response.RespondWithJSON(w, code, result)
}
