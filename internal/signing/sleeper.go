package signing

import (
	"context"
	"time"
)

// Sleeper abstracts blocking waits. This interface enables deterministic
// testing of the poll loop without real delays.
type Sleeper interface {
	// Sleep blocks for d or until ctx is canceled, in which case it
	// returns the context's error.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper implements Sleeper with actual wall-clock waits.
type RealSleeper struct{}

// Sleep blocks the calling goroutine.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
