// Package notify delivers attendance notifications over messaging channels.
package notify

import (
	"context"
	"errors"

	"github.com/evn/absen_backend/internal/models"
)

var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrTransport          = errors.New("transport error")
	ErrUnsupportedChannel = errors.New("unsupported channel type")
)

// SendResult is the outcome of one delivery attempt. Response is already masked.
type SendResult struct {
	Success   bool           `json:"success"`
	MessageID string         `json:"message_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Response  map[string]any `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
	Err       error          `json:"-"`
}

// Adapter sends through one provider. A non-nil error means the attempt was
// refused before reaching the network (rate limit); provider and transport
// failures come back as an unsuccessful SendResult.
type Adapter interface {
	SendMessage(ctx context.Context, to, message string) (SendResult, error)
	SendPhoto(ctx context.Context, to, message, photoURL string) (SendResult, error)
	IsAvailable() bool
	Type() models.ChannelType
}

func failed(err error, response map[string]any) SendResult {
	return SendResult{Success: false, Status: string(models.LogFailed), Error: err.Error(), Err: err, Response: response}
}
