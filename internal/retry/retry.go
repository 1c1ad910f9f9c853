// Package retry runs an operation with exponential backoff. The policy is
// pure data so callers can unit-test delay schedules without sleeping.
package retry

import (
	"context"
	"time"
)

// Policy controls how Do re-runs a failing operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles per attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Classify reports whether an error is worth retrying. A nil Classify
	// retries everything.
	Classify func(error) bool
}

// BackoffDelay returns the wait before retry attempt n (0-based):
// BaseDelay * 2^n, capped at MaxDelay.
func (p Policy) BackoffDelay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails terminally, exhausts attempts, or ctx
// is done. It returns the last error on exhaustion and ctx.Err() when the
// context ends first, so callers can tell a deadline from an upstream
// failure.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Classify != nil && !p.Classify(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		timer := time.NewTimer(p.BackoffDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
