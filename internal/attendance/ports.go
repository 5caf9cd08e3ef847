package attendance

import (
	"context"
	"time"

	"github.com/evn/absen_backend/internal/models"
)

// Directory resolves cards and users. Lookups that find nothing return
// repositories.ErrNotFound.
type Directory interface {
	ActiveCardOwner(ctx context.Context, cardUID string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ShiftMaps interface {
	EffectiveMaps(ctx context.Context, userID int64, day time.Time) ([]models.UserShiftMap, error)
}

type Records interface {
	Create(ctx context.Context, rec *models.AttendanceRecord) error
	GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	LatestForUserBetween(ctx context.Context, userID int64, from, to time.Time) (*models.AttendanceRecord, error)
}

type Photos interface {
	Create(ctx context.Context, p *models.AttendancePhoto) error
}

// Notifier sends the notifications for one persisted record.
type Notifier interface {
	Dispatch(ctx context.Context, rec *models.AttendanceRecord) error
}
