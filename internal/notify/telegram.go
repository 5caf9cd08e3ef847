package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/evn/absen_backend/internal/models"
)

const TelegramAPIBase = "https://api.telegram.org"

type TelegramAdapter struct {
	botToken string
	baseURL  string
	client   *http.Client
	limiter  *RateLimiter
	limit    int
}

func NewTelegramAdapter(creds map[string]string, settings models.ChannelSettings, limiter *RateLimiter, baseURL string) *TelegramAdapter {
	if baseURL == "" {
		baseURL = TelegramAPIBase
	}
	return &TelegramAdapter{
		botToken: creds["bot_token"],
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: settings.Timeout()},
		limiter:  limiter,
		limit:    settings.RateLimit,
	}
}

func (a *TelegramAdapter) Type() models.ChannelType { return models.ChannelTelegram }

func (a *TelegramAdapter) IsAvailable() bool { return a.botToken != "" }

func (a *TelegramAdapter) SendMessage(ctx context.Context, to, message string) (SendResult, error) {
	return a.call(ctx, "sendMessage", map[string]any{
		"chat_id":    to,
		"text":       message,
		"parse_mode": "HTML",
	})
}

func (a *TelegramAdapter) SendPhoto(ctx context.Context, to, message, photoURL string) (SendResult, error) {
	return a.call(ctx, "sendPhoto", map[string]any{
		"chat_id":    to,
		"photo":      photoURL,
		"caption":    message,
		"parse_mode": "HTML",
	})
}

func (a *TelegramAdapter) call(ctx context.Context, method string, payload map[string]any) (SendResult, error) {
	if err := a.limiter.Allow(ctx, models.ChannelTelegram, a.limit); err != nil {
		return SendResult{}, err
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.botToken, method)
	code, body, err := postJSON(ctx, a.client, endpoint, nil, payload)
	resp := maskTelegram(body)
	if err != nil {
		return failed(err, resp), nil
	}

	if ok, _ := body["ok"].(bool); !isSuccess(code) || !ok {
		desc := lookupString(body, "description")
		if desc == "" {
			desc = "Unknown error"
		}
		return failed(fmt.Errorf("telegram api error: %s", desc), resp), nil
	}

	return SendResult{
		Success:   true,
		MessageID: lookupString(body, "result", "message_id"),
		Status:    string(models.LogSent),
		Response:  resp,
	}, nil
}

// maskTelegram hides the bot's own id in addition to the generic keys.
func maskTelegram(body map[string]any) map[string]any {
	out := MaskResponse(body)
	if result, ok := out["result"].(map[string]any); ok {
		if from, ok := result["from"].(map[string]any); ok {
			if _, has := from["id"]; has {
				from["id"] = masked
			}
		}
	}
	return out
}
