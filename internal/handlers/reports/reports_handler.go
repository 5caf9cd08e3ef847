package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/pkg/response"
	"github.com/evn/absen_backend/internal/reports"
	"github.com/evn/absen_backend/internal/repositories"
)

// maxExportDays bounds a single XLSX export.
const maxExportDays = 93

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportService interface {
	Location() *time.Location
	ParseDay(v string) (time.Time, error)
	Daily(ctx context.Context, day time.Time) (*reports.DailySummary, error)
	Range(ctx context.Context, from, to time.Time) ([]repositories.AttendanceRow, error)
}

type Publisher interface {
	PublishDaily(ctx context.Context, summary *reports.DailySummary, table [][]string) (int, error)
}

type ReportsHandler struct {
	service   ReportService
	publisher Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewReportsHandler takes a nil publisher when Google Sheets is not configured.
func NewReportsHandler(service ReportService, publisher Publisher, logger zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		service:   service,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.With().Str("handler", "reports").Logger(),
	}
}

func (h *ReportsHandler) day(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return h.now().In(h.service.Location()), nil
	}
	return h.service.ParseDay(v)
}

func (h *ReportsHandler) DailyHandler(w http.ResponseWriter, r *http.Request) {
	day, err := h.day(r, "date")
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.service.Daily(r.Context(), day)
	if err != nil {
		h.logger.Error().Err(err).Msg("daily report failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	response.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *ReportsHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	from, err := h.day(r, "from")
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := h.day(r, "to")
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		response.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Export range is limited to %d days", maxExportDays))
		return
	}

	rows, err := h.service.Range(r.Context(), from, to)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteXLSX(&buf, rows, h.service.Location()); err != nil {
		h.logger.Error().Err(err).Msg("xlsx export failed")
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to build workbook")
		return
	}

	name := fmt.Sprintf("absensi_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// PublishHandler appends one day's report to the configured spreadsheet.
func (h *ReportsHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		response.RespondWithError(w, http.StatusServiceUnavailable, "Google Sheets is not configured")
		return
	}
	day, err := h.day(r, "date")
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := PublishDay(r.Context(), h.service, h.publisher, day)
	if err != nil {
		h.logger.Error().Err(err).Msg("sheet publish failed")
		response.RespondWithError(w, http.StatusBadGateway, "Failed to publish report")
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]any{
		"date":         day.Format("2006-01-02"),
		"updated_rows": updated,
	})
}

// PublishDay builds the day's summary and pushes it through publisher.
func PublishDay(ctx context.Context, service ReportService, publisher Publisher, day time.Time) (int, error) {
	summary, err := service.Daily(ctx, day)
	if err != nil {
		return 0, err
	}
	return publisher.PublishDaily(ctx, summary, reports.Table(summary.Rows, service.Location()))
}
