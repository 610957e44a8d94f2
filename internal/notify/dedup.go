package notify

import (
	"context"
	"fmt"
	"time"
)

// DefaultDedupWindow is used when a caller passes no window. It is
// deliberately tiny: it only suppresses duplicates created within the
// same millisecond.
const DefaultDedupWindow = time.Millisecond

// ShouldNotify reports whether message may be sent to userID: true unless
// a notification with the byte-identical message was created within
// window of now. A zero or negative window means DefaultDedupWindow.
func (e *Engine) ShouldNotify(ctx context.Context, userID, message string, window time.Duration) (bool, error) {
	if window <= 0 {
		window = DefaultDedupWindow
	}

	since := e.clock.Now().Add(-window)
	exists, err := e.store.NotificationExistsSince(ctx, userID, message, since)
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return !exists, nil
}
