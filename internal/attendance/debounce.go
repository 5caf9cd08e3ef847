package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/evn/absen_backend/internal/kv"
)

const DefaultDebounceWindow = 3 * time.Second

// DebounceGuard rejects a second tap of the same card on the same device
// inside the window.
type DebounceGuard struct {
	store  kv.Store
	window time.Duration
}

func NewDebounceGuard(store kv.Store, window time.Duration) *DebounceGuard {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &DebounceGuard{store: store, window: window}
}

func debounceKey(deviceID int64, cardUID string) string {
	return fmt.Sprintf("tap:%d:%s", deviceID, cardUID)
}

func (g *DebounceGuard) ShouldAccept(ctx context.Context, deviceID int64, cardUID string) error {
	ok, err := g.store.SetNX(ctx, debounceKey(deviceID, cardUID), "1", g.window)
	if err != nil {
		return fmt.Errorf("debounce check: %w", err)
	}
	if !ok {
		return ErrDuplicateTap
	}
	return nil
}
