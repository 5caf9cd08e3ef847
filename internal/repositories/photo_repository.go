package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/evn/absen_backend/internal/models"
)

type PhotoRepository struct {
	db *sql.DB
}

func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// A record keeps a single photo row. A newer upload replaces it, but a
// failure placeholder never replaces a stored photo.
const upsertPhotoSQL = `
	INSERT INTO attendance_photos (attendance_id, filename, original_name, mime_type, file_size, dimensions, storage_path)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (attendance_id) DO UPDATE SET
		filename      = EXCLUDED.filename,
		original_name = EXCLUDED.original_name,
		mime_type     = EXCLUDED.mime_type,
		file_size     = EXCLUDED.file_size,
		dimensions    = EXCLUDED.dimensions,
		storage_path  = EXCLUDED.storage_path,
		created_at    = NOW()
	WHERE EXCLUDED.file_size > 0 OR attendance_photos.file_size = 0
	RETURNING id, created_at
`

// Create stores the photo for its record. A placeholder arriving after a
// stored photo is dropped and p.ID stays zero.
func (r *PhotoRepository) Create(ctx context.Context, p *models.AttendancePhoto) error {
	dims, err := jsonColumn(p.Dimensions)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, upsertPhotoSQL,
		p.AttendanceID, p.Filename, p.OriginalName, p.MimeType, p.FileSize, dims, p.StoragePath,
	).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// LatestForAttendance returns the newest photo row for the record, or nil.
func (r *PhotoRepository) LatestForAttendance(ctx context.Context, attendanceID int64) (*models.AttendancePhoto, error) {
	var p models.AttendancePhoto
	var dims []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, attendance_id, filename, original_name, mime_type, file_size, dimensions, storage_path, created_at
		FROM attendance_photos
		WHERE attendance_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, attendanceID).Scan(&p.ID, &p.AttendanceID, &p.Filename, &p.OriginalName, &p.MimeType,
		&p.FileSize, &dims, &p.StoragePath, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(dims, &p.Dimensions); err != nil {
		return nil, err
	}
	return &p, nil
}
