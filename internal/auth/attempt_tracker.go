package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatly/internal/shared/config"
	"chatly/pkg/cache"
)

const (
	attemptPrefix = "login_attempts:"
	lockoutPrefix = "login_lockout:"
)

// AttemptTracker counts failed logins per identifier in a fixed window and
// enforces a lockout once the threshold is reached. It guards only the
// login endpoint; token verification never consults it.
type AttemptTracker struct {
	store       cache.Store
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

func NewAttemptTracker(store cache.Store, cfg config.LockoutConfig) *AttemptTracker {
	return &AttemptTracker{
		store:       store,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		lockout:     cfg.Duration,
	}
}

// RecordFailure increments the window counter and, at the threshold, plants
// a lockout marker. Returns the current failure count. The first failure
// opens the window atomically with the increment, so the counter can never
// outlive it.
func (t *AttemptTracker) RecordFailure(ctx context.Context, identifier string) (int64, error) {
	key := attemptPrefix + identifier

	count, err := t.store.IncrementWithTTL(ctx, key, t.window)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if count >= int64(t.maxAttempts) {
		if err := t.store.Set(ctx, lockoutPrefix+identifier, "1", t.lockout); err != nil {
			return count, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return count, nil
}

// RecordSuccess clears the counter and any lockout marker.
func (t *AttemptTracker) RecordSuccess(ctx context.Context, identifier string) error {
	if err := t.store.Delete(ctx, attemptPrefix+identifier); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := t.store.Delete(ctx, lockoutPrefix+identifier); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsLocked reports whether the identifier is locked out and how long the
// lockout has left to run.
func (t *AttemptTracker) IsLocked(ctx context.Context, identifier string) (bool, time.Duration, error) {
	key := lockoutPrefix + identifier

	_, err := t.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	remaining, err := t.store.TTL(ctx, key)
	if err != nil || remaining < 0 {
		remaining = t.lockout
	}
	return true, remaining, nil
}
