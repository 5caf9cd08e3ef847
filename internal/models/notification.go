package models

import "time"

type ChannelType string

const (
	ChannelWhatsApp ChannelType = "whatsapp"
	ChannelTelegram ChannelType = "telegram"
	ChannelEmail    ChannelType = "email"
	ChannelSMS      ChannelType = "sms"
)

type EventType string

const (
	EventAttendanceIn  EventType = "attendance_in"
	EventAttendanceOut EventType = "attendance_out"
	EventLateArrival   EventType = "late_arrival"
)

type LogStatus string

const (
	LogPending   LogStatus = "pending"
	LogSent      LogStatus = "sent"
	LogFailed    LogStatus = "failed"
	LogDelivered LogStatus = "delivered"
)

// ChannelSettings is the decoded settings column of a notification channel.
type ChannelSettings struct {
	RateLimit      int `json:"rate_limit,omitempty"`
	TimeoutSeconds int `json:"timeout,omitempty"`
}

func (s ChannelSettings) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// NotificationChannel carries its credentials sealed; they are opened only
// when an adapter is built.
type NotificationChannel struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Type                 ChannelType     `json:"type"`
	EncryptedCredentials []byte          `json:"-"`
	Settings             ChannelSettings `json:"settings"`
	Status               string          `json:"status"`
}

func (c *NotificationChannel) IsActive() bool {
	return c.Status == StatusActive
}

type UserNotificationPreference struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"user_id"`
	ChannelID        int64       `json:"notification_channel_id"`
	ContactValue     string      `json:"contact_value"`
	EventPreferences []EventType `json:"event_preferences"`
	Status           string      `json:"status"`

	Channel *NotificationChannel `json:"channel,omitempty"`
}

func (p *UserNotificationPreference) IsEventEnabled(event EventType) bool {
	for _, e := range p.EventPreferences {
		if e == event {
			return true
		}
	}
	return false
}

type NotificationTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	EventType EventType `json:"event_type"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
}

// NotificationLog is append-only.
type NotificationLog struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	ChannelID    int64          `json:"notification_channel_id"`
	AttendanceID int64          `json:"attendance_id,omitempty"`
	EventType    EventType      `json:"event_type"`
	ContactValue string         `json:"contact_value"`
	Message      string         `json:"message"`
	Status       LogStatus      `json:"status"`
	Response     map[string]any `json:"response,omitempty"`
	ExternalID   string         `json:"external_id,omitempty"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
