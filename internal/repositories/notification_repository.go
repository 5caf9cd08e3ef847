package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/evn/absen_backend/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func scanChannel(row interface{ Scan(...any) error }, c *models.NotificationChannel) error {
	var settings []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.EncryptedCredentials, &settings, &c.Status); err != nil {
		return err
	}
	return decodeJSON(settings, &c.Settings)
}

func (r *NotificationRepository) GetChannel(ctx context.Context, id int64) (*models.NotificationChannel, error) {
	var c models.NotificationChannel
	err := scanChannel(r.db.QueryRowContext(ctx, `
		SELECT id, name, type, credentials, settings, status
		FROM notification_channels WHERE id = $1
	`, id), &c)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// CreateChannel stores a channel whose credentials are already sealed.
func (r *NotificationRepository) CreateChannel(ctx context.Context, c *models.NotificationChannel) error {
	settings, err := jsonColumn(c.Settings)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO notification_channels (name, type, credentials, settings, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Name, c.Type, c.EncryptedCredentials, settings, c.Status).Scan(&c.ID)
}

// ActivePreferences returns the user's active preferences with their channel loaded.
func (r *NotificationRepository) ActivePreferences(ctx context.Context, userID int64) ([]models.UserNotificationPreference, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.notification_channel_id, p.contact_value, p.event_preferences, p.status,
		       c.id, c.name, c.type, c.credentials, c.settings, c.status
		FROM user_notification_prefs p
		JOIN notification_channels c ON c.id = p.notification_channel_id
		WHERE p.user_id = $1 AND p.status = $2
		ORDER BY p.id
	`, userID, models.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []models.UserNotificationPreference
	for rows.Next() {
		var p models.UserNotificationPreference
		var c models.NotificationChannel
		var events []string
		var settings []byte
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ChannelID, &p.ContactValue, pq.Array(&events), &p.Status,
			&c.ID, &c.Name, &c.Type, &c.EncryptedCredentials, &settings, &c.Status,
		); err != nil {
			return nil, err
		}
		if err := decodeJSON(settings, &c.Settings); err != nil {
			return nil, fmt.Errorf("channel %d settings: %w", c.ID, err)
		}
		for _, e := range events {
			p.EventPreferences = append(p.EventPreferences, models.EventType(e))
		}
		p.Channel = &c
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// ActiveTemplate returns the first active template for the event, or nil.
func (r *NotificationRepository) ActiveTemplate(ctx context.Context, event models.EventType) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, event_type, subject, body, status
		FROM notification_templates
		WHERE event_type = $1 AND status = $2
		ORDER BY id
		LIMIT 1
	`, event, models.StatusActive).Scan(&t.ID, &t.Name, &t.EventType, &t.Subject, &t.Body, &t.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *NotificationRepository) CreateLog(ctx context.Context, l *models.NotificationLog) error {
	resp, err := jsonColumn(l.Response)
	if err != nil {
		return err
	}
	var attendanceID, externalID any
	if l.AttendanceID != 0 {
		attendanceID = l.AttendanceID
	}
	if l.ExternalID != "" {
		externalID = l.ExternalID
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO notification_logs
			(user_id, notification_channel_id, attendance_id, event_type, contact_value, message, status, response, external_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, l.UserID, l.ChannelID, attendanceID, l.EventType, l.ContactValue, l.Message, l.Status, resp, externalID, l.SentAt,
	).Scan(&l.ID, &l.CreatedAt)
}

type LogFilter struct {
	Status    models.LogStatus
	ChannelID int64
	UserID    int64
	Limit     int
	Offset    int
}

func (r *NotificationRepository) ListLogs(ctx context.Context, f LogFilter) ([]models.NotificationLog, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.ChannelID != 0 {
		add("notification_channel_id = $%d", f.ChannelID)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}

	query := `SELECT id, user_id, notification_channel_id, attendance_id, event_type, contact_value,
		message, status, response, external_id, sent_at, created_at FROM notification_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.NotificationLog{}
	for rows.Next() {
		var l models.NotificationLog
		var attendanceID sql.NullInt64
		var externalID sql.NullString
		var sentAt sql.NullTime
		var resp []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.ChannelID, &attendanceID, &l.EventType, &l.ContactValue,
			&l.Message, &l.Status, &resp, &externalID, &sentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.AttendanceID = attendanceID.Int64
		l.ExternalID = externalID.String
		if sentAt.Valid {
			t := sentAt.Time
			l.SentAt = &t
		}
		if err := decodeJSON(resp, &l.Response); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CountSince counts log rows per status created after since.
func (r *NotificationRepository) CountSince(ctx context.Context, since time.Time) (map[models.LogStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM notification_logs WHERE created_at >= $1 GROUP BY status`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[models.LogStatus]int{}
	for rows.Next() {
		var s models.LogStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
