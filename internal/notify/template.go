package notify

import (
	"html"
	"regexp"
	"time"

	"github.com/evn/absen_backend/internal/models"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// RenderContext carries the facts a template may reference.
type RenderContext struct {
	UserName       string
	TapTime        time.Time
	Type           models.AttendanceType
	StatusFlag     models.StatusFlag
	DeviceName     string
	DeviceLocation string
	PhotoURL       string
}

type Rendered struct {
	Subject string
	Body    string
}

var typeLabels = map[models.AttendanceType]string{
	models.TypeIn:   "Masuk",
	models.TypeOut:  "Keluar",
	models.TypeAuto: "Otomatis",
}

var flagLabels = map[models.StatusFlag]string{
	models.FlagOnTime:     "Tepat Waktu",
	models.FlagLate:       "Terlambat",
	models.FlagEarlyLeave: "Pulang Lebih Awal",
}

func label[K ~string](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Variables builds the escaped substitution table. Extras override the
// built-in names.
func Variables(rc RenderContext, extra map[string]string) map[string]string {
	vars := map[string]string{
		"name":             rc.UserName,
		"time":             rc.TapTime.Format("15:04:05"),
		"date":             rc.TapTime.Format("02/01/2006"),
		"datetime":         rc.TapTime.Format("02/01/2006 15:04:05"),
		"type":             label(typeLabels, rc.Type),
		"status_flag":      label(flagLabels, rc.StatusFlag),
		"device_name":      rc.DeviceName,
		"device_location":  rc.DeviceLocation,
		"photo_url_signed": rc.PhotoURL,
	}
	for k, v := range extra {
		vars[k] = v
	}
	for k, v := range vars {
		vars[k] = html.EscapeString(v)
	}
	return vars
}

// RenderString replaces {{name}} placeholders in one pass. Unknown names are
// left as written.
func RenderString(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[2:len(m)-2]]; ok {
			return v
		}
		return m
	})
}

func Render(t *models.NotificationTemplate, rc RenderContext, extra map[string]string) Rendered {
	vars := Variables(rc, extra)
	return Rendered{
		Subject: RenderString(t.Subject, vars),
		Body:    RenderString(t.Body, vars),
	}
}
