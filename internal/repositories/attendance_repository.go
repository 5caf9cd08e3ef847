package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/evn/absen_backend/internal/models"
)

type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `a.id, a.user_id, a.device_id, a.card_uid, a.type, a.status_flag, a.tap_time, a.client_time, a.metadata, a.created_at`

func scanAttendance(row interface{ Scan(...any) error }, extra ...any) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	var clientTime sql.NullTime
	var meta []byte
	dest := append([]any{
		&rec.ID, &rec.UserID, &rec.DeviceID, &rec.CardUID, &rec.Type, &rec.StatusFlag,
		&rec.TapTime, &clientTime, &meta, &rec.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if clientTime.Valid {
		rec.ClientTime = &clientTime.Time
	}
	if err := decodeJSON(meta, &rec.Metadata); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *AttendanceRepository) Create(ctx context.Context, rec *models.AttendanceRecord) error {
	meta, err := jsonColumn(rec.Metadata)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO attendances (user_id, device_id, card_uid, type, status_flag, tap_time, client_time, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, rec.UserID, rec.DeviceID, rec.CardUID, rec.Type, rec.StatusFlag, rec.TapTime, rec.ClientTime, meta,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	rec, err := scanAttendance(r.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendances a WHERE a.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

// LatestForUserBetween returns the user's most recent tap in [from, to), or nil.
func (r *AttendanceRepository) LatestForUserBetween(ctx context.Context, userID int64, from, to time.Time) (*models.AttendanceRecord, error) {
	rec, err := scanAttendance(r.db.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances a
		WHERE a.user_id = $1 AND a.tap_time >= $2 AND a.tap_time < $3
		ORDER BY a.tap_time DESC, a.id DESC
		LIMIT 1
	`, userID, from, to))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// AttendanceRow is a record joined with the names shown in reports.
type AttendanceRow struct {
	models.AttendanceRecord
	UserName       string `json:"user_name"`
	DeviceName     string `json:"device_name"`
	DeviceLocation string `json:"device_location"`
}

// ListBetween returns every tap in [from, to) ordered by tap time.
func (r *AttendanceRepository) ListBetween(ctx context.Context, from, to time.Time) ([]AttendanceRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+attendanceColumns+`, u.name, d.name, d.location
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		JOIN devices d ON d.id = a.device_id
		WHERE a.tap_time >= $1 AND a.tap_time < $2
		ORDER BY a.tap_time, a.id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var row AttendanceRow
		rec, err := scanAttendance(rows, &row.UserName, &row.DeviceName, &row.DeviceLocation)
		if err != nil {
			return nil, err
		}
		row.AttendanceRecord = *rec
		out = append(out, row)
	}
	return out, rows.Err()
}
