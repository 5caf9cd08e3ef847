// Package attendance turns raw card taps into classified attendance records
// and hands them to the photo and notification pipelines.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/metrics"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/realtime"
	"github.com/evn/absen_backend/internal/repositories"
	"github.com/evn/absen_backend/internal/tasks"
)

type TapInput struct {
	CardUID    string
	Device     *models.Device
	ClientTime *time.Time
	IP         string
}

type Deps struct {
	Debounce    *DebounceGuard
	Identity    *IdentityResolver
	Shifts      *ShiftEvaluator
	Records     Records
	Photos      *PhotoPipeline
	Scheduler   tasks.Scheduler
	Broadcaster realtime.Broadcaster
	Notifier    Notifier
	Location    *time.Location
	Now         func() time.Time
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

type Service struct {
	Deps
}

func NewService(d Deps) *Service {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{Deps: d}
}

// ProcessTap runs one tap through debounce, identity, type inference and
// shift classification, persists it and fans it out. Nothing is written when
// an earlier step rejects the tap.
func (s *Service) ProcessTap(ctx context.Context, in TapInput) (*models.AttendanceRecord, error) {
	if in.Device == nil {
		return nil, errors.New("tap without device")
	}

	if err := s.Debounce.ShouldAccept(ctx, in.Device.ID, in.CardUID); err != nil {
		s.countTap(err)
		return nil, err
	}

	user, err := s.Identity.Resolve(ctx, in.CardUID)
	if err != nil {
		s.countTap(err)
		return nil, err
	}

	tapTime := s.Now().In(s.Location)

	tapType, err := s.inferType(ctx, user.ID, tapTime)
	if err != nil {
		s.countTap(err)
		return nil, fmt.Errorf("infer tap type: %w", err)
	}

	flag, err := s.Shifts.Classify(ctx, user, tapTime, tapType)
	if err != nil {
		s.countTap(err)
		return nil, fmt.Errorf("classify tap: %w", err)
	}

	rec := &models.AttendanceRecord{
		UserID:     user.ID,
		DeviceID:   in.Device.ID,
		CardUID:    in.CardUID,
		Type:       tapType,
		StatusFlag: flag,
		TapTime:    tapTime,
		Metadata: map[string]string{
			models.MetaDeviceName:     in.Device.Name,
			models.MetaDeviceLocation: in.Device.Location,
			models.MetaIPAddress:      in.IP,
		},
	}
	if in.ClientTime != nil && !in.ClientTime.After(tapTime) {
		ct := *in.ClientTime
		rec.ClientTime = &ct
	}

	if err := s.Records.Create(ctx, rec); err != nil {
		s.countTap(err)
		return nil, fmt.Errorf("save attendance: %w", err)
	}
	s.Metrics.Tap("accepted")

	s.Logger.Info().
		Int64("attendance_id", rec.ID).
		Int64("user_id", user.ID).
		Int64("device_id", in.Device.ID).
		Str("type", string(rec.Type)).
		Str("status_flag", string(rec.StatusFlag)).
		Msg("attendance recorded")

	s.fanOut(rec, user, in.Device)
	return rec, nil
}

// inferType alternates in and out within a calendar day.
func (s *Service) inferType(ctx context.Context, userID int64, tapTime time.Time) (models.AttendanceType, error) {
	y, m, d := tapTime.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, tapTime.Location())
	latest, err := s.Records.LatestForUserBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return "", err
	}
	return nextType(latest), nil
}

func nextType(latest *models.AttendanceRecord) models.AttendanceType {
	if latest == nil {
		return models.TypeIn
	}
	switch latest.Type {
	case models.TypeOut:
		return models.TypeIn
	case models.TypeIn:
		return models.TypeOut
	default:
		return models.TypeAuto
	}
}

type userRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type deviceRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// RecordedEvent is the realtime payload for a new record.
type RecordedEvent struct {
	ID         int64                 `json:"id"`
	Type       models.AttendanceType `json:"type"`
	StatusFlag models.StatusFlag     `json:"status_flag"`
	TapTime    time.Time             `json:"tap_time"`
	User       userRef               `json:"user"`
	Device     deviceRef             `json:"device"`
}

// fanOut never fails the tap; the record is already committed.
func (s *Service) fanOut(rec *models.AttendanceRecord, user *models.User, device *models.Device) {
	if s.Broadcaster != nil {
		event := RecordedEvent{
			ID:         rec.ID,
			Type:       rec.Type,
			StatusFlag: rec.StatusFlag,
			TapTime:    rec.TapTime,
			User:       userRef{ID: user.ID, Name: user.Name},
			Device:     deviceRef{ID: device.ID, Name: device.Name, Location: device.Location},
		}
		channels := []string{realtime.ChannelPublic, realtime.ChannelAdmin}
		if err := s.Broadcaster.Publish(realtime.EventAttendanceRecorded, channels, event); err != nil {
			s.Logger.Warn().Err(err).Int64("attendance_id", rec.ID).Msg("broadcast failed")
		}
	}

	if s.Notifier != nil && s.Scheduler != nil {
		snapshot := *rec
		err := s.Scheduler.Submit(tasks.Task{
			Name: "notify",
			Run: func(ctx context.Context) error {
				return s.Notifier.Dispatch(ctx, &snapshot)
			},
		})
		if err != nil {
			s.Logger.Warn().Err(err).Int64("attendance_id", rec.ID).Msg("failed to queue notifications")
		}
	}
}

// SubmitPhoto queues the photo for a record created by the same device.
func (s *Service) SubmitPhoto(ctx context.Context, device *models.Device, attendanceID int64, data []byte) (*models.AttendanceRecord, error) {
	rec, err := s.Records.GetByID(ctx, attendanceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if device == nil || rec.DeviceID != device.ID {
		return nil, ErrRecordNotFound
	}

	err = s.Scheduler.Submit(tasks.Task{
		Name: "photo",
		Run: func(ctx context.Context) error {
			_, err := s.Photos.Process(ctx, attendanceID, data)
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("queue photo: %w", err)
	}
	return rec, nil
}

func (s *Service) countTap(err error) {
	switch {
	case errors.Is(err, ErrDuplicateTap):
		s.Metrics.Tap("duplicate")
	case errors.Is(err, ErrInvalidCard):
		s.Metrics.Tap("invalid_card")
	case errors.Is(err, ErrInactiveUser):
		s.Metrics.Tap("inactive_user")
	default:
		s.Metrics.Tap("error")
	}
}
