package app

import (
	"context"
	"math/rand"
	"time"
)

// DefaultBackoffMax caps the delay between resubmissions when backoff is enabled.
const DefaultBackoffMax = 10 * time.Second

// backoff implements exponential backoff with jitter.
// A zero initial duration disables waiting entirely.
type backoff struct {
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		max:     max,
		current: initial,
	}
}

// Wait sleeps for the current backoff duration and increases it.
// Returns early with the context error if ctx is done first.
func (b *backoff) Wait(ctx context.Context) error {
	if b.current <= 0 {
		return ctx.Err()
	}

	// Add jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	sleep := time.Duration(float64(b.current) + jitter)

	// Increase for next time
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	return sleepContext(ctx, sleep)
}

// Current returns the delay the next Wait is based on, before jitter.
func (b *backoff) Current() time.Duration {
	return b.current
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
