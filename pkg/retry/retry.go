// Package retry repeats operations that fail with transient errors.
//
// Backends mark failures worth another attempt (a dropped Redis connection,
// a database that is still starting) with [Transient]; [Do] retries only
// those, with a delay that doubles after each attempt. Any other error is
// returned at once.
package retry

import (
	"context"
	"errors"
	"time"
)

// TransientError marks a failure that is worth another attempt.
type TransientError struct{ Err error }

// Transient wraps err as a TransientError. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is wrapped with Transient.
func IsTransient(err error) bool {
	return errors.As(err, new(*TransientError))
}

// DefaultDelay is the wait before the second attempt of [WithBackoff].
var DefaultDelay = 200 * time.Millisecond

// Do executes fn up to attempts times with exponential backoff.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled
// while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsTransient(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// WithBackoff is [Do] with 3 attempts starting at DefaultDelay.
func WithBackoff(ctx context.Context, fn func() error) error {
	return Do(ctx, 3, DefaultDelay, fn)
}
