package models

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Card statuses. Only active cards resolve to a user.
const (
	CardActive   = "active"
	CardInactive = "inactive"
	CardLost     = "lost"
	CardDamaged  = "damaged"
)

type RFIDCard struct {
	ID      int64  `json:"id"`
	CardUID string `json:"card_uid"`
	UserID  int64  `json:"user_id"`
	Status  string `json:"status"`
}

type Device struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	DeviceKeyHash string     `json:"-"`
	Status        string     `json:"status"`
	LastIP        string     `json:"last_ip,omitempty"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
}

func (d *Device) IsActive() bool {
	return d.Status == StatusActive
}
