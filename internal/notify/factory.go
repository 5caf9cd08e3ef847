package notify

import (
	"fmt"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/secrets"
)

// Factory builds adapters for stored channels, opening their sealed credentials.
type Factory struct {
	box         secrets.Box
	limiter     *RateLimiter
	telegramURL string
}

func NewFactory(box secrets.Box, limiter *RateLimiter) *Factory {
	return &Factory{box: box, limiter: limiter}
}

// WithTelegramBaseURL points Telegram adapters at another API host.
func (f *Factory) WithTelegramBaseURL(u string) *Factory {
	f.telegramURL = u
	return f
}

func (f *Factory) Build(ch *models.NotificationChannel) (Adapter, error) {
	creds, err := secrets.OpenCredentials(f.box, ch.EncryptedCredentials)
	if err != nil {
		return nil, fmt.Errorf("channel %d credentials: %w", ch.ID, err)
	}
	switch ch.Type {
	case models.ChannelTelegram:
		return NewTelegramAdapter(creds, ch.Settings, f.limiter, f.telegramURL), nil
	case models.ChannelWhatsApp:
		return NewWhatsAppAdapter(creds, ch.Settings, f.limiter), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch.Type)
	}
}
