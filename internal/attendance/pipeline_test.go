package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/absen_backend/internal/kv"
	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/notify"
	"github.com/evn/absen_backend/internal/secrets"
)

type memNotificationStore struct {
	mu        sync.Mutex
	prefs     []models.UserNotificationPreference
	templates map[models.EventType]*models.NotificationTemplate
	logs      []*models.NotificationLog
}

func (s *memNotificationStore) ActivePreferences(_ context.Context, userID int64) ([]models.UserNotificationPreference, error) {
	var out []models.UserNotificationPreference
	for _, p := range s.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memNotificationStore) ActiveTemplate(_ context.Context, e models.EventType) (*models.NotificationTemplate, error) {
	return s.templates[e], nil
}

func (s *memNotificationStore) GetChannel(context.Context, int64) (*models.NotificationChannel, error) {
	return nil, nil
}

func (s *memNotificationStore) CreateLog(_ context.Context, l *models.NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, l)
	return nil
}

// A late check-in flows from the tap through to a delivered Telegram message.
func TestLateTapSendsLateArrivalNotification(t *testing.T) {
	var sentText string
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sentText = body.Text
		w.Write([]byte(`{"ok":true,"result":{"message_id":501}}`))
	}))
	defer tg.Close()

	box, err := secrets.NewSecretBox(make([]byte, secrets.KeySize))
	require.NoError(t, err)
	creds, err := secrets.SealCredentials(box, map[string]string{"bot_token": "BOT"})
	require.NoError(t, err)
	channel := &models.NotificationChannel{ID: 1, Type: models.ChannelTelegram, EncryptedCredentials: creds, Status: models.StatusActive}

	store := &memNotificationStore{
		prefs: []models.UserNotificationPreference{{
			ID: 1, UserID: 10, ChannelID: 1, ContactValue: "99887766", Status: models.StatusActive,
			EventPreferences: []models.EventType{models.EventLateArrival}, Channel: channel,
		}},
		templates: map[models.EventType]*models.NotificationTemplate{
			models.EventLateArrival: {ID: 1, EventType: models.EventLateArrival, Body: "{{name}}: {{type}} {{status_flag}} pukul {{time}}", Status: models.StatusActive},
			models.EventAttendanceIn: {ID: 2, EventType: models.EventAttendanceIn, Body: "{{name}} masuk", Status: models.StatusActive},
		},
	}

	h := newHarness(t, nil)
	h.clock.t = time.Date(2025, 3, 3, 8, 20, 0, 0, wib)
	h.svc.Notifier = notify.NewDispatcher(notify.DispatcherConfig{
		Store:    store,
		Users:    h.dir,
		Adapters: notify.NewFactory(box, notify.NewRateLimiter(kv.NewMemoryStore(), h.clock.Now)).WithTelegramBaseURL(tg.URL),
		Location: wib,
		Now:      h.clock.Now,
		Logger:   zerolog.Nop(),
	})

	h.maps.maps = []models.UserShiftMap{{
		ID: 1, UserID: 10, ShiftID: 1, Status: models.StatusActive,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Shift:         officeShift(),
	}}

	rec, err := h.tap("04A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, models.TypeIn, rec.Type)
	assert.Equal(t, models.FlagLate, rec.StatusFlag)

	require.Len(t, store.logs, 1)
	log := store.logs[0]
	assert.Equal(t, models.LogSent, log.Status)
	assert.Equal(t, models.EventLateArrival, log.EventType)
	assert.Equal(t, "501", log.ExternalID)
	assert.Contains(t, log.Message, "Terlambat")
	assert.Equal(t, "Ana: Masuk Terlambat pukul 08:20:00", sentText)
}
