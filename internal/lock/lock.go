// Package lock provides the cross-process mutual-exclusion capability the
// resource service acquires around every mutating operation: "try_acquire
// (timeout) -> bool; release()" with guaranteed release on all exit paths,
// including panics.
package lock

import (
	"context"
	"time"
)

// Store is the external lock collaborator. Implementations must make
// Release safe to call even when the corresponding TryAcquire never
// succeeded or already expired.
type Store interface {
	TryAcquire(ctx context.Context, path string, timeout time.Duration) (bool, error)
	Release(ctx context.Context, path string) error
}

// WithLock acquires path, runs fn, and releases path on every exit path:
// success, error, or panic. It is the sole sanctioned way callers take a
// resource lock, so the release-on-panic guarantee cannot be bypassed by a
// call site forgetting its own defer.
func WithLock(ctx context.Context, s Store, path string, timeout time.Duration, fn func() error) error {
	ok, err := s.TryAcquire(ctx, path, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimeout
	}
	defer s.Release(ctx, path)
	return fn()
}

// ErrTimeout is returned when a lock could not be acquired within the
// requested timeout. Per the error-handling design, a lock timeout
// propagates to the caller and is never retried automatically.
var ErrTimeout = lockTimeoutError{}

type lockTimeoutError struct{}

func (lockTimeoutError) Error() string { return "lock: acquisition timed out" }
