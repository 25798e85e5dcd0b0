package util

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoff = 30 * time.Second

// CalculateBackoff returns baseDelay doubled per attempt, capped at 30s, with ±25% jitter.
// Attempt 0 (the first try) has no delay.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap the shift so it cannot overflow.
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
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
