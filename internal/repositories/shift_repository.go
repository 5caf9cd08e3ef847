package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/evn/absen_backend/internal/models"
)

type ShiftRepository struct {
	db *sql.DB
}

func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// EffectiveMaps returns the user's active shift mappings covering day, newest
// first, each with its shift loaded.
func (r *ShiftRepository) EffectiveMaps(ctx context.Context, userID int64, day time.Time) ([]models.UserShiftMap, error) {
	date := day.Format("2006-01-02")
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.shift_id, m.effective_date, m.end_date, m.status, m.created_at,
		       s.id, s.name, s.start_time::text, s.end_time::text, s.tolerance_minutes, s.working_days, s.status
		FROM user_shift_maps m
		JOIN shifts s ON s.id = m.shift_id
		WHERE m.user_id = $1
		  AND m.status = $2
		  AND m.effective_date <= $3::date
		  AND (m.end_date IS NULL OR m.end_date >= $3::date)
		ORDER BY m.created_at DESC, m.id DESC
	`, userID, models.StatusActive, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maps []models.UserShiftMap
	for rows.Next() {
		var m models.UserShiftMap
		var s models.Shift
		var endDate sql.NullTime
		var start, end string
		var days []int64
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ShiftID, &m.EffectiveDate, &endDate, &m.Status, &m.CreatedAt,
			&s.ID, &s.Name, &start, &end, &s.ToleranceMinutes, pq.Array(&days), &s.Status,
		); err != nil {
			return nil, err
		}
		if endDate.Valid {
			m.EndDate = &endDate.Time
		}
		if s.StartTime, err = models.ParseClockTime(start); err != nil {
			return nil, fmt.Errorf("shift %d: %w", s.ID, err)
		}
		if s.EndTime, err = models.ParseClockTime(end); err != nil {
			return nil, fmt.Errorf("shift %d: %w", s.ID, err)
		}
		for _, d := range days {
			s.WorkingDays = append(s.WorkingDays, int(d))
		}
		m.Shift = &s
		maps = append(maps, m)
	}
	return maps, rows.Err()
}
