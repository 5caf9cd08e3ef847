package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/absen_backend/internal/kv"
	"github.com/evn/absen_backend/internal/models"
)

func newLimiter() *RateLimiter {
	return NewRateLimiter(kv.NewMemoryStore(), nil)
}

func TestTelegramAdapter_SendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN123/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"result":{"message_id":42,"from":{"id":999,"is_bot":true}}}`))
	}))
	defer srv.Close()

	a := NewTelegramAdapter(map[string]string{"bot_token": "TOKEN123"}, models.ChannelSettings{}, newLimiter(), srv.URL)
	res, err := a.SendMessage(context.Background(), "5551", "<b>hi</b>")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "42", res.MessageID)
	assert.Equal(t, "sent", res.Status)
	assert.Equal(t, masked, res.Response["result"].(map[string]any)["from"].(map[string]any)["id"])
	assert.Equal(t, "5551", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestTelegramAdapter_SendPhoto(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botT/sendPhoto", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer srv.Close()

	a := NewTelegramAdapter(map[string]string{"bot_token": "T"}, models.ChannelSettings{}, newLimiter(), srv.URL)
	res, err := a.SendPhoto(context.Background(), "1", "caption", "https://x.test/p.jpg")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://x.test/p.jpg", got["photo"])
	assert.Equal(t, "caption", got["caption"])
}

func TestTelegramAdapter_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	a := NewTelegramAdapter(map[string]string{"bot_token": "T"}, models.ChannelSettings{}, newLimiter(), srv.URL)
	res, err := a.SendMessage(context.Background(), "1", "x")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "chat not found")
}

func TestTelegramAdapter_TransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := NewTelegramAdapter(map[string]string{"bot_token": "SECRET-TOKEN"}, models.ChannelSettings{}, newLimiter(), url)
	res, err := a.SendMessage(context.Background(), "1", "x")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrTransport)
	assert.NotContains(t, res.Error, "SECRET-TOKEN")
}

func TestTelegramAdapter_RateLimitBeforeNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	a := NewTelegramAdapter(map[string]string{"bot_token": "T"}, models.ChannelSettings{RateLimit: 2}, newLimiter(), srv.URL)
	for i := 0; i < 2; i++ {
		_, err := a.SendMessage(context.Background(), "1", "x")
		require.NoError(t, err)
	}
	_, err := a.SendMessage(context.Background(), "1", "x")
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTelegramAdapter_Availability(t *testing.T) {
	assert.False(t, NewTelegramAdapter(nil, models.ChannelSettings{}, newLimiter(), "").IsAvailable())
	assert.Equal(t, models.ChannelTelegram, NewTelegramAdapter(nil, models.ChannelSettings{}, newLimiter(), "").Type())
}

func TestWhatsAppAdapter_SendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer WA-TOKEN", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"messages":[{"id":"wamid.XYZ","status":"accepted"}],"access_token":"leak"}`))
	}))
	defer srv.Close()

	creds := map[string]string{"token": "WA-TOKEN", "api_url": srv.URL + "/v1/"}
	a := NewWhatsAppAdapter(creds, models.ChannelSettings{}, newLimiter())
	require.True(t, a.IsAvailable())

	res, err := a.SendMessage(context.Background(), "0812-3456 789", "halo")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "wamid.XYZ", res.MessageID)
	assert.Equal(t, "accepted", res.Status)
	assert.Equal(t, masked, res.Response["access_token"])

	assert.Equal(t, "628123456789", got["to"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, "halo", got["text"].(map[string]any)["body"])
}

func TestWhatsAppAdapter_SendPhotoAndError(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid token"}}`))
	}))
	defer srv.Close()

	a := NewWhatsAppAdapter(map[string]string{"token": "x", "api_url": srv.URL}, models.ChannelSettings{}, newLimiter())
	res, err := a.SendPhoto(context.Background(), "628111", "cap", "https://x.test/p.jpg")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid token")
	assert.Equal(t, "image", got["type"])
	assert.Equal(t, "https://x.test/p.jpg", got["image"].(map[string]any)["link"])
}

func TestWhatsAppAdapter_UnavailableWithoutURL(t *testing.T) {
	a := NewWhatsAppAdapter(map[string]string{"token": "x"}, models.ChannelSettings{}, newLimiter())
	assert.False(t, a.IsAvailable())
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"081234567890":     "6281234567890",
		"+62 812-3456-789": "628123456789",
		"6281234":          "6281234",
		"(021) 555 0101":   "62215550101",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}
