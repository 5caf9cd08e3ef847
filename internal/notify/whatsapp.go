package notify

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/evn/absen_backend/internal/models"
)

type WhatsAppAdapter struct {
	token   string
	apiURL  string
	client  *http.Client
	limiter *RateLimiter
	limit   int
}

func NewWhatsAppAdapter(creds map[string]string, settings models.ChannelSettings, limiter *RateLimiter) *WhatsAppAdapter {
	return &WhatsAppAdapter{
		token:   creds["token"],
		apiURL:  strings.TrimRight(creds["api_url"], "/"),
		client:  &http.Client{Timeout: settings.Timeout()},
		limiter: limiter,
		limit:   settings.RateLimit,
	}
}

func (a *WhatsAppAdapter) Type() models.ChannelType { return models.ChannelWhatsApp }

func (a *WhatsAppAdapter) IsAvailable() bool { return a.token != "" && a.apiURL != "" }

func (a *WhatsAppAdapter) SendMessage(ctx context.Context, to, message string) (SendResult, error) {
	return a.send(ctx, map[string]any{
		"to":   NormalizePhone(to),
		"type": "text",
		"text": map[string]string{"body": message},
	})
}

func (a *WhatsAppAdapter) SendPhoto(ctx context.Context, to, message, photoURL string) (SendResult, error) {
	return a.send(ctx, map[string]any{
		"to":    NormalizePhone(to),
		"type":  "image",
		"image": map[string]string{"link": photoURL, "caption": message},
	})
}

func (a *WhatsAppAdapter) send(ctx context.Context, payload map[string]any) (SendResult, error) {
	if err := a.limiter.Allow(ctx, models.ChannelWhatsApp, a.limit); err != nil {
		return SendResult{}, err
	}

	headers := map[string]string{"Authorization": "Bearer " + a.token}
	code, body, err := postJSON(ctx, a.client, a.apiURL+"/messages", headers, payload)
	resp := MaskResponse(body)
	if err != nil {
		return failed(err, resp), nil
	}

	id := lookupString(body, "messages", 0, "id")
	if !isSuccess(code) || id == "" {
		msg := lookupString(body, "error", "message")
		if msg == "" {
			msg = "Unknown error"
		}
		return failed(fmt.Errorf("whatsapp api error: %s", msg), resp), nil
	}

	status := lookupString(body, "messages", 0, "status")
	if status == "" {
		status = string(models.LogSent)
	}
	return SendResult{Success: true, MessageID: id, Status: status, Response: resp}, nil
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// NormalizePhone keeps digits only and rewrites a local 0 prefix to 62.
func NormalizePhone(phone string) string {
	phone = nonDigits.ReplaceAllString(phone, "")
	if strings.HasPrefix(phone, "0") {
		phone = "62" + phone[1:]
	}
	return phone
}
