package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/attendance"
	"github.com/evn/absen_backend/internal/middleware"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/pkg/response"
	"github.com/evn/absen_backend/internal/pkg/validation"
	"github.com/evn/absen_backend/internal/tasks"
)

// MaxPhotoBytes is the largest decoded photo accepted from a kiosk.
const MaxPhotoBytes = 500 * 1024

var dataURLPattern = regexp.MustCompile(`^data:image/(jpeg|jpg|png|webp);base64,(.+)$`)

type TapService interface {
	ProcessTap(ctx context.Context, in attendance.TapInput) (*models.AttendanceRecord, error)
	SubmitPhoto(ctx context.Context, device *models.Device, attendanceID int64, data []byte) (*models.AttendanceRecord, error)
}

type AttendanceHandler struct {
	service  TapService
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

func NewAttendanceHandler(service TapService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:  service,
		validate: validation.New(),
		now:      time.Now,
		logger:   logger.With().Str("handler", "attendance").Logger(),
	}
}

type TapRequest struct {
	CardUID    string `json:"card_uid" validate:"required,carduid"`
	ClientTime string `json:"client_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type PhotoRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

func (h *AttendanceHandler) Tap(w http.ResponseWriter, r *http.Request) {
	device, ok := middleware.DeviceFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Device not authenticated")
		return
	}

	var req TapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.CardUID = strings.ToUpper(strings.TrimSpace(req.CardUID))
	if err := h.validate.Struct(req); err != nil {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed", validation.Fields(err))
		return
	}

	in := attendance.TapInput{CardUID: req.CardUID, Device: device, IP: middleware.ClientIP(r)}
	if req.ClientTime != "" {
		ct, _ := time.Parse(time.RFC3339, req.ClientTime)
		if ct.After(h.now()) {
			response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed",
				map[string]string{"client_time": "not_future"})
			return
		}
		in.ClientTime = &ct
	}

	rec, err := h.service.ProcessTap(r.Context(), in)
	if err != nil {
		h.respondError(w, err, "tap rejected")
		return
	}
	response.RespondWithJSON(w, http.StatusCreated, rec)
}

func (h *AttendanceHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	device, ok := middleware.DeviceFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "Device not authenticated")
		return
	}
	attendanceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || attendanceID <= 0 {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid attendance ID")
		return
	}

	var req PhotoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 2*MaxPhotoBytes)).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed", validation.Fields(err))
		return
	}
	data, field := decodeDataURL(req.ImageBase64)
	if field != "" {
		response.RespondWithFields(w, http.StatusUnprocessableEntity, "Validation failed",
			map[string]string{"image_base64": field})
		return
	}

	if _, err := h.service.SubmitPhoto(r.Context(), device, attendanceID, data); err != nil {
		h.respondError(w, err, "photo rejected")
		return
	}
	response.RespondWithJSON(w, http.StatusAccepted, map[string]any{
		"attendance_id": attendanceID,
		"photo":         attendance.ProcessingPhoto(attendanceID, len(data)),
	})
}

// decodeDataURL returns the decoded image, or the name of the rule it broke.
func decodeDataURL(v string) ([]byte, string) {
	m := dataURLPattern.FindStringSubmatch(v)
	if m == nil {
		return nil, "data_url"
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, "base64"
	}
	if len(data) > MaxPhotoBytes {
		return nil, "max_size"
	}
	return data, ""
}

func (h *AttendanceHandler) respondError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, attendance.ErrDuplicateTap):
		response.RespondWithError(w, http.StatusTooManyRequests, "Duplicate tap, please wait")
	case errors.Is(err, attendance.ErrInvalidCard):
		response.RespondWithError(w, http.StatusNotFound, "Card is not registered")
	case errors.Is(err, attendance.ErrInactiveUser):
		response.RespondWithError(w, http.StatusForbidden, "User is inactive")
	case errors.Is(err, attendance.ErrRecordNotFound):
		response.RespondWithError(w, http.StatusNotFound, "Attendance record not found")
	case errors.Is(err, tasks.ErrQueueFull), errors.Is(err, tasks.ErrStopped):
		response.RespondWithError(w, http.StatusServiceUnavailable, "Server busy, try again")
	default:
		h.logger.Error().Err(err).Msg(msg)
		response.RespondWithError(w, http.StatusInternalServerError, "Internal error")
	}
}
