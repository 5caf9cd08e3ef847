package attendance

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/metrics"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/storage"
)

const (
	PhotoMaxWidth  = 800
	PhotoMaxHeight = 800
	PhotoQuality   = 85

	// Uploads are rejected from the header alone past these bounds.
	PhotoMaxSourceSide   = 8000
	PhotoMaxSourcePixels = 40_000_000
)

// PhotoPipeline turns an uploaded image into a stored, resized JPEG.
// Re-encoding drops all EXIF and other metadata.
type PhotoPipeline struct {
	store   storage.ObjectStore
	photos  Photos
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewPhotoPipeline(store storage.ObjectStore, photos Photos, now func() time.Time, logger zerolog.Logger, m *metrics.Metrics) *PhotoPipeline {
	if now == nil {
		now = time.Now
	}
	return &PhotoPipeline{store: store, photos: photos, now: now, logger: logger, metrics: m}
}

// Process stores the photo for the record. On failure a placeholder row with
// zero size is written and the returned error wraps ErrPhotoProcessingFailed.
func (p *PhotoPipeline) Process(ctx context.Context, attendanceID int64, data []byte) (*models.AttendancePhoto, error) {
	photo, err := p.process(ctx, attendanceID, data)
	if err == nil {
		p.metrics.PhotoJob("ok")
		return photo, nil
	}

	p.metrics.PhotoJob("failed")
	p.logger.Error().Err(err).Int64("attendance_id", attendanceID).Msg("photo processing failed")

	placeholder := p.placeholder(attendanceID)
	if perr := p.photos.Create(ctx, placeholder); perr != nil {
		p.logger.Error().Err(perr).Int64("attendance_id", attendanceID).Msg("failed to record photo placeholder")
		return nil, fmt.Errorf("%w: %v", ErrPhotoProcessingFailed, err)
	}
	return placeholder, fmt.Errorf("%w: %v", ErrPhotoProcessingFailed, err)
}

func (p *PhotoPipeline) process(ctx context.Context, attendanceID int64, data []byte) (*models.AttendancePhoto, error) {
	if err := checkSourceSize(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img = imaging.Fit(img, PhotoMaxWidth, PhotoMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(PhotoQuality)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	now := p.now()
	name := uuid.NewString() + ".jpg"
	key := fmt.Sprintf("photos/%s/%s", now.Format("2006/01/02"), name)
	if err := p.store.Put(ctx, key, buf.Bytes(), "image/jpeg"); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	bounds := img.Bounds()
	photo := &models.AttendancePhoto{
		AttendanceID: attendanceID,
		Filename:     name,
		OriginalName: fmt.Sprintf("attendance_%d_%d.jpg", attendanceID, now.Unix()),
		MimeType:     "image/jpeg",
		FileSize:     int64(buf.Len()),
		Dimensions:   models.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		StoragePath:  key,
	}
	if err := p.photos.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}
	return photo, nil
}

func checkSourceSize(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if cfg.Width > PhotoMaxSourceSide || cfg.Height > PhotoMaxSourceSide ||
		int64(cfg.Width)*int64(cfg.Height) > PhotoMaxSourcePixels {
		return fmt.Errorf("image %dx%d is too large", cfg.Width, cfg.Height)
	}
	return nil
}

func (p *PhotoPipeline) placeholder(attendanceID int64) *models.AttendancePhoto {
	id := uuid.NewString()
	return &models.AttendancePhoto{
		AttendanceID: attendanceID,
		Filename:     "error_" + id,
		OriginalName: fmt.Sprintf("attendance_%d_%d.jpg", attendanceID, p.now().Unix()),
		MimeType:     "text/plain",
		FileSize:     0,
		StoragePath:  "photos/errors/" + id + ".txt",
	}
}

// ProcessingPhoto describes an upload that is queued but not yet stored.
// It is returned to the device and never persisted.
func ProcessingPhoto(attendanceID int64, size int) *models.AttendancePhoto {
	return &models.AttendancePhoto{
		AttendanceID: attendanceID,
		Filename:     "processing_" + uuid.NewString(),
		MimeType:     "image/jpeg",
		FileSize:     int64(size),
		StoragePath:  "photos/processing/" + uuid.NewString() + ".jpg",
	}
}
