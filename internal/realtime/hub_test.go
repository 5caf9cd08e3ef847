package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, r.URL.Query().Get("channel"))
		hub.Register(client)
		go hub.ReadPump(client)
		go hub.WritePump(client)
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channel=" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesSubscribedChannelOnly(t *testing.T) {
	hub, srv := startHub(t)
	admin := dial(t, srv, ChannelAdmin)
	other := dial(t, srv, "elsewhere")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	payload := map[string]any{"id": 7, "type": "in"}
	require.NoError(t, hub.Publish(EventAttendanceRecorded, []string{ChannelPublic, ChannelAdmin}, payload))

	admin.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := admin.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event   string         `json:"event"`
		Channel string         `json:"channel"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, EventAttendanceRecorded, env.Event)
	assert.Equal(t, ChannelAdmin, env.Channel)
	assert.Equal(t, "in", env.Data["type"])

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, ChannelPublic)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
