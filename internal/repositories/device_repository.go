package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/evn/absen_backend/internal/models"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

const deviceColumns = `id, name, location, device_key_hash, status, last_ip, last_seen_at`

func scanDevice(row interface{ Scan(...any) error }) (*models.Device, error) {
	var d models.Device
	var lastIP sql.NullString
	var lastSeen sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &d.Location, &d.DeviceKeyHash, &d.Status, &lastIP, &lastSeen); err != nil {
		return nil, err
	}
	d.LastIP = lastIP.String
	if lastSeen.Valid {
		d.LastSeenAt = &lastSeen.Time
	}
	return &d, nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id int64) (*models.Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *DeviceRepository) ListActive(ctx context.Context) ([]models.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE status = $1 ORDER BY id`, models.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) TouchLastSeen(ctx context.Context, id int64, ip string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE devices SET last_seen_at = $1, last_ip = $2 WHERE id = $3`, at, ip, id)
	return err
}
