package models

import "time"

type AttendanceType string

const (
	TypeIn   AttendanceType = "in"
	TypeOut  AttendanceType = "out"
	TypeAuto AttendanceType = "auto"
)

type StatusFlag string

const (
	FlagOnTime     StatusFlag = "ontime"
	FlagLate       StatusFlag = "late"
	FlagEarlyLeave StatusFlag = "early_leave"
)

// Metadata keys stored with every attendance record.
const (
	MetaDeviceName     = "device_name"
	MetaDeviceLocation = "device_location"
	MetaIPAddress      = "ip_address"
)

// AttendanceRecord is immutable after creation; only its photo is attached later.
type AttendanceRecord struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	DeviceID   int64             `json:"device_id"`
	CardUID    string            `json:"card_uid"`
	Type       AttendanceType    `json:"type"`
	StatusFlag StatusFlag        `json:"status_flag"`
	TapTime    time.Time         `json:"tap_time"`
	ClientTime *time.Time        `json:"client_time,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type AttendancePhoto struct {
	ID           int64      `json:"id"`
	AttendanceID int64      `json:"attendance_id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	MimeType     string     `json:"mime_type"`
	FileSize     int64      `json:"file_size"`
	Dimensions   Dimensions `json:"dimensions"`
	StoragePath  string     `json:"storage_path"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsPlaceholder reports whether the photo is the error record written when processing failed.
func (p *AttendancePhoto) IsPlaceholder() bool {
	return p.FileSize == 0
}
