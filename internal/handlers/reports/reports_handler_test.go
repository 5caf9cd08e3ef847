package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/reports"
	"github.com/evn/absen_backend/internal/repositories"
)

var wib = time.FixedZone("WIB", 7*3600)

type fakeSource struct {
	rows     []repositories.AttendanceRow
	from, to time.Time
}

func (f *fakeSource) ListBetween(_ context.Context, from, to time.Time) ([]repositories.AttendanceRow, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

type fakePublisher struct {
	summary *reports.DailySummary
	table   [][]string
	err     error
}

func (f *fakePublisher) PublishDaily(_ context.Context, s *reports.DailySummary, table [][]string) (int, error) {
	f.summary, f.table = s, table
	return len(table) + 1, f.err
}

func setup(pub Publisher) (*ReportsHandler, *fakeSource) {
	src := &fakeSource{rows: []repositories.AttendanceRow{{
		AttendanceRecord: models.AttendanceRecord{
			ID: 1, UserID: 5, Type: models.TypeIn, StatusFlag: models.FlagLate,
			TapTime: time.Date(2026, 3, 2, 8, 20, 0, 0, wib),
		},
		UserName: "Budi",
	}}}
	h := NewReportsHandler(reports.NewService(src, wib), pub, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC) }
	return h, src
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDailyHandler(t *testing.T) {
	h, src := setup(nil)

	rec := get(h.DailyHandler, "/api/reports/daily")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2026-03-02"`)
	assert.Contains(t, rec.Body.String(), `"late":1`)
	assert.True(t, src.from.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, wib)))

	assert.Equal(t, http.StatusBadRequest, get(h.DailyHandler, "/api/reports/daily?date=2026-13-40").Code)
}

func TestExportHandler(t *testing.T) {
	h, _ := setup(nil)

	rec := get(h.ExportHandler, "/api/reports/export?from=2026-03-01&to=2026-03-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "absensi_20260301_20260302.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Budi", rows[1][3])

	assert.Equal(t, http.StatusBadRequest, get(h.ExportHandler, "/api/reports/export?from=2026-03-05&to=2026-03-01").Code)
	assert.Equal(t, http.StatusBadRequest, get(h.ExportHandler, "/api/reports/export?from=2025-01-01&to=2026-03-01").Code)
}

func TestPublishHandler(t *testing.T) {
	h, _ := setup(nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(h.PublishHandler, "/").Code)

	pub := &fakePublisher{}
	h, _ = setup(pub)
	rec := get(h.PublishHandler, "/?date=2026-03-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated_rows":3`)
	assert.Equal(t, "2026-03-02", pub.summary.Date)
	assert.Equal(t, "Budi", pub.table[1][3])

	h, _ = setup(&fakePublisher{err: errors.New("quota")})
	assert.Equal(t, http.StatusBadGateway, get(h.PublishHandler, "/").Code)
}
