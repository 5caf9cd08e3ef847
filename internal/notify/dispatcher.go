package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/evn/absen_backend/internal/metrics"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/storage"
)

type Store interface {
	ActivePreferences(ctx context.Context, userID int64) ([]models.UserNotificationPreference, error)
	ActiveTemplate(ctx context.Context, event models.EventType) (*models.NotificationTemplate, error)
	GetChannel(ctx context.Context, id int64) (*models.NotificationChannel, error)
	CreateLog(ctx context.Context, l *models.NotificationLog) error
}

type Users interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type PhotoSource interface {
	LatestForAttendance(ctx context.Context, attendanceID int64) (*models.AttendancePhoto, error)
}

type AdapterBuilder interface {
	Build(ch *models.NotificationChannel) (Adapter, error)
}

type DispatcherConfig struct {
	Store       Store
	Users       Users
	Photos      PhotoSource
	ObjectStore storage.ObjectStore
	Adapters    AdapterBuilder
	PhotoURLTTL time.Duration
	Location    *time.Location
	Now         func() time.Time
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

type Dispatcher struct {
	cfg DispatcherConfig
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PhotoURLTTL <= 0 {
		cfg.PhotoURLTTL = 10 * time.Minute
	}
	cfg.Logger = cfg.Logger.With().Str("component", "notify").Logger()
	return &Dispatcher{cfg: cfg}
}

// EventFor maps a record to the notification event it triggers.
func EventFor(rec *models.AttendanceRecord) models.EventType {
	switch rec.Type {
	case models.TypeIn:
		if rec.StatusFlag == models.FlagLate {
			return models.EventLateArrival
		}
		return models.EventAttendanceIn
	case models.TypeOut:
		return models.EventAttendanceOut
	default:
		return models.EventAttendanceIn
	}
}

// Dispatch notifies every enabled preference of the record's user. A failing
// preference is logged and never stops the others; only lookups that affect
// all preferences return an error.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *models.AttendanceRecord) error {
	log := d.cfg.Logger.With().Int64("attendance_id", rec.ID).Int64("user_id", rec.UserID).Logger()

	prefs, err := d.cfg.Store.ActivePreferences(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if len(prefs) == 0 {
		log.Info().Msg("no notification preferences for user")
		return nil
	}

	event := EventFor(rec)
	tmpl, err := d.cfg.Store.ActiveTemplate(ctx, event)
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		log.Warn().Str("event_type", string(event)).Msg("no notification template for event type")
		return nil
	}

	user, err := d.cfg.Users.GetByID(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	rendered := Render(tmpl, d.renderContext(ctx, rec, user), nil)

	for i := range prefs {
		pref := &prefs[i]
		if !pref.IsEventEnabled(event) {
			continue
		}
		if pref.Channel == nil || !pref.Channel.IsActive() {
			continue
		}
		d.sendOne(ctx, log, rec, event, pref, rendered.Body)
	}
	return nil
}

func (d *Dispatcher) renderContext(ctx context.Context, rec *models.AttendanceRecord, user *models.User) RenderContext {
	rc := RenderContext{
		UserName:       user.Name,
		TapTime:        rec.TapTime.In(d.cfg.Location),
		Type:           rec.Type,
		StatusFlag:     rec.StatusFlag,
		DeviceName:     rec.Metadata[models.MetaDeviceName],
		DeviceLocation: rec.Metadata[models.MetaDeviceLocation],
	}
	if d.cfg.Photos == nil || d.cfg.ObjectStore == nil {
		return rc
	}
	photo, err := d.cfg.Photos.LatestForAttendance(ctx, rec.ID)
	if err != nil || photo == nil || photo.IsPlaceholder() {
		return rc
	}
	url, err := d.cfg.ObjectStore.SignedURL(ctx, photo.StoragePath, d.cfg.PhotoURLTTL)
	if err != nil {
		d.cfg.Logger.Warn().Err(err).Int64("attendance_id", rec.ID).Msg("photo url signing failed")
		return rc
	}
	rc.PhotoURL = url
	return rc
}

func (d *Dispatcher) sendOne(ctx context.Context, log zerolog.Logger, rec *models.AttendanceRecord, event models.EventType, pref *models.UserNotificationPreference, body string) {
	ch := pref.Channel
	log = log.With().Int64("channel_id", ch.ID).Str("channel_type", string(ch.Type)).Logger()

	entry := &models.NotificationLog{
		UserID:       rec.UserID,
		ChannelID:    ch.ID,
		AttendanceID: rec.ID,
		EventType:    event,
		ContactValue: pref.ContactValue,
	}

	adapter, err := d.cfg.Adapters.Build(ch)
	if errors.Is(err, ErrUnsupportedChannel) || (err == nil && !adapter.IsAvailable()) {
		log.Warn().Err(ErrChannelUnavailable).Msg("channel adapter not available")
		return
	}
	if err != nil {
		d.recordFailure(ctx, log, ch.Type, entry, err)
		return
	}

	result, err := adapter.SendMessage(ctx, pref.ContactValue, body)
	if err != nil {
		d.recordFailure(ctx, log, ch.Type, entry, err)
		return
	}

	entry.Message = body
	entry.Response = result.Response
	entry.ExternalID = result.MessageID
	if result.Success {
		entry.Status = models.LogSent
		now := d.cfg.Now()
		entry.SentAt = &now
	} else {
		entry.Status = models.LogFailed
		if entry.Response == nil {
			entry.Response = map[string]any{"error": result.Error}
		}
	}
	d.cfg.Metrics.Notification(string(ch.Type), string(entry.Status))
	if err := d.cfg.Store.CreateLog(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to write notification log")
		return
	}
	log.Info().Str("event_type", string(event)).Str("status", string(entry.Status)).Msg("notification processed")
}

func (d *Dispatcher) recordFailure(ctx context.Context, log zerolog.Logger, chType models.ChannelType, entry *models.NotificationLog, cause error) {
	log.Error().Err(cause).Msg("failed to send notification")
	entry.Message = "Failed to send: " + cause.Error()
	entry.Status = models.LogFailed
	entry.Response = map[string]any{"error": cause.Error()}
	d.cfg.Metrics.Notification(string(chType), string(models.LogFailed))
	if err := d.cfg.Store.CreateLog(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to write notification log")
	}
}

// TestSend pushes an ad-hoc message through a stored channel without
// writing a log row.
func (d *Dispatcher) TestSend(ctx context.Context, channelID int64, contact, message, photoURL string) (SendResult, error) {
	ch, err := d.cfg.Store.GetChannel(ctx, channelID)
	if err != nil {
		return SendResult{}, err
	}
	adapter, err := d.cfg.Adapters.Build(ch)
	if errors.Is(err, ErrUnsupportedChannel) {
		return SendResult{}, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	if err != nil {
		return SendResult{}, err
	}
	if !adapter.IsAvailable() {
		return SendResult{}, ErrChannelUnavailable
	}
	if photoURL != "" {
		return adapter.SendPhoto(ctx, contact, message, photoURL)
	}
	return adapter.SendMessage(ctx, contact, message)
}
