package scrape

import (
	"context"
	"time"
)

// MaxRetryDelay caps a single backoff delay.
const MaxRetryDelay = 30 * time.Second

// RetryDelays returns the backoff delays for n retries, starting at first
// and doubling each time: first, 2*first, 4*first and so on.
func RetryDelays(first time.Duration, n int) []time.Duration {
	delays := make([]time.Duration, n)
	for i := range delays {
		delays[i] = RetryDelay(first, i)
	}
	return delays
}

// RetryDelay returns the delay before retry number n (zero-based), capped
// at MaxRetryDelay.
func RetryDelay(first time.Duration, n int) time.Duration {
	d := first
	for i := 0; i < n && d < MaxRetryDelay; i++ {
		d *= 2
	}
	return min(d, MaxRetryDelay)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
