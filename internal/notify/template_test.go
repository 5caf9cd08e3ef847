package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/evn/absen_backend/internal/models"
)

func TestRenderString_LeavesUnknownPlaceholders(t *testing.T) {
	got := RenderString("Hi {{name}} {{missing}}", map[string]string{"name": "Ana"})
	assert.Equal(t, "Hi Ana {{missing}}", got)
}

func TestRender_AllVariables(t *testing.T) {
	tmpl := &models.NotificationTemplate{
		Subject: "{{type}} {{name}}",
		Body:    "{{name}} {{type}} {{status_flag}} {{time}} {{date}} | {{datetime}} @ {{device_name}} ({{device_location}}) {{photo_url_signed}}",
	}
	rc := RenderContext{
		UserName:       "Ana",
		TapTime:        time.Date(2025, 3, 3, 8, 20, 5, 0, time.UTC),
		Type:           models.TypeIn,
		StatusFlag:     models.FlagLate,
		DeviceName:     "Lobby Kiosk",
		DeviceLocation: "Lantai 1",
		PhotoURL:       "https://x.test/p.jpg",
	}

	out := Render(tmpl, rc, nil)
	assert.Equal(t, "Masuk Ana", out.Subject)
	assert.Equal(t, "Ana Masuk Terlambat 08:20:05 03/03/2025 | 03/03/2025 08:20:05 @ Lobby Kiosk (Lantai 1) https://x.test/p.jpg", out.Body)
}

func TestVariables_Labels(t *testing.T) {
	tests := []struct {
		typ  models.AttendanceType
		flag models.StatusFlag
		want [2]string
	}{
		{models.TypeIn, models.FlagOnTime, [2]string{"Masuk", "Tepat Waktu"}},
		{models.TypeOut, models.FlagEarlyLeave, [2]string{"Keluar", "Pulang Lebih Awal"}},
		{models.TypeAuto, models.FlagOnTime, [2]string{"Otomatis", "Tepat Waktu"}},
	}
	for _, tt := range tests {
		vars := Variables(RenderContext{Type: tt.typ, StatusFlag: tt.flag}, nil)
		assert.Equal(t, tt.want[0], vars["type"])
		assert.Equal(t, tt.want[1], vars["status_flag"])
	}
}

func TestRender_EscapesAndExtrasOverride(t *testing.T) {
	tmpl := &models.NotificationTemplate{Body: "{{name}} / {{note}}"}
	rc := RenderContext{UserName: `<b>Ana</b> & "co"`}

	out := Render(tmpl, rc, map[string]string{"note": "<script>x</script>"})
	assert.Equal(t, "&lt;b&gt;Ana&lt;/b&gt; &amp; &#34;co&#34; / &lt;script&gt;x&lt;/script&gt;", out.Body)

	out = Render(tmpl, rc, map[string]string{"name": "Budi", "note": "ok"})
	assert.Equal(t, "Budi / ok", out.Body)
}

func TestRender_SinglePassAndIdempotent(t *testing.T) {
	tmpl := &models.NotificationTemplate{Body: "Hi {{name}}"}
	rc := RenderContext{UserName: "{{device_name}}", DeviceName: "Lobby"}

	first := Render(tmpl, rc, nil)
	assert.Equal(t, "Hi {{device_name}}", first.Body)
	assert.Equal(t, first, Render(tmpl, rc, nil))
}
