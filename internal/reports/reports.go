// Package reports builds attendance summaries and exports them to XLSX and
// Google Sheets.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/repositories"
)

type Source interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]repositories.AttendanceRow, error)
}

type DailySummary struct {
	Date   string                        `json:"date"`
	Total  int                           `json:"total"`
	Users  int                           `json:"users"`
	ByType map[models.AttendanceType]int `json:"by_type"`
	ByFlag map[models.StatusFlag]int     `json:"by_status_flag"`
	Rows   []repositories.AttendanceRow  `json:"rows"`
}

type Service struct {
	src Source
	loc *time.Location
}

func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, loc: loc}
}

func (s *Service) Location() *time.Location { return s.loc }

// ParseDay reads YYYY-MM-DD in the service's timezone.
func (s *Service) ParseDay(v string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return t, nil
}

func (s *Service) Daily(ctx context.Context, day time.Time) (*DailySummary, error) {
	y, m, d := day.In(s.loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	rows, err := s.src.ListBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return summarize(start.Format("2006-01-02"), rows), nil
}

// Range returns every tap between the two calendar days, both inclusive.
func (s *Service) Range(ctx context.Context, from, to time.Time) ([]repositories.AttendanceRow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return s.src.ListBetween(ctx, from, to.AddDate(0, 0, 1))
}

func summarize(date string, rows []repositories.AttendanceRow) *DailySummary {
	sum := &DailySummary{
		Date:   date,
		Total:  len(rows),
		ByType: map[models.AttendanceType]int{},
		ByFlag: map[models.StatusFlag]int{},
		Rows:   rows,
	}
	if sum.Rows == nil {
		sum.Rows = []repositories.AttendanceRow{}
	}
	users := map[int64]bool{}
	for _, r := range rows {
		sum.ByType[r.Type]++
		sum.ByFlag[r.StatusFlag]++
		users[r.UserID] = true
	}
	sum.Users = len(users)
	return sum
}

var tableHeader = []string{"ID", "Tanggal", "Jam", "Nama", "Tipe", "Status", "Perangkat", "Lokasi", "Kartu"}

// Table flattens rows for spreadsheet output, header first.
func Table(rows []repositories.AttendanceRow, loc *time.Location) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, tableHeader)
	for _, r := range rows {
		t := r.TapTime.In(loc)
		out = append(out, []string{
			fmt.Sprint(r.ID),
			t.Format("2006-01-02"),
			t.Format("15:04:05"),
			r.UserName,
			string(r.Type),
			string(r.StatusFlag),
			r.DeviceName,
			r.DeviceLocation,
			r.CardUID,
		})
	}
	return out
}
