package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/evn/absen_backend/internal/kv"
	"github.com/evn/absen_backend/internal/models"
)

// Default hourly quotas per channel type.
var defaultLimits = map[models.ChannelType]int{
	models.ChannelWhatsApp: 100,
	models.ChannelTelegram: 30,
}

func DefaultLimit(t models.ChannelType) int {
	if n, ok := defaultLimits[t]; ok {
		return n
	}
	return 60
}

// RateLimiter counts sends per channel type in fixed clock-hour windows.
type RateLimiter struct {
	store kv.Store
	now   func() time.Time
}

func NewRateLimiter(store kv.Store, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, now: now}
}

func rateLimitKey(t models.ChannelType, at time.Time) string {
	return fmt.Sprintf("rate_limit:%s:%s", t, at.Format("2006-01-02-15"))
}

// Allow consumes one unit of the current hour's quota.
func (l *RateLimiter) Allow(ctx context.Context, t models.ChannelType, limit int) error {
	if limit <= 0 {
		limit = DefaultLimit(t)
	}
	n, err := l.store.IncrWithExpiry(ctx, rateLimitKey(t, l.now()), time.Hour)
	if err != nil {
		return fmt.Errorf("rate limit counter: %w", err)
	}
	if n > int64(limit) {
		return fmt.Errorf("%w for %s", ErrRateLimitExceeded, t)
	}
	return nil
}
