package auth

import (
	"context"
	"fmt"
	"time"

	"chatly/pkg/cache"
)

const refreshLockPrefix = "refresh_lock:"

// RefreshCoordinator provides distributed mutual exclusion for refresh
// rotation via the store's atomic set-if-absent. The first caller for a
// given refresh token wins; concurrent callers fail immediately with
// ErrLockContention and never queue. The lock TTL is a safety valve so a
// crashed holder cannot deadlock the refresh path.
type RefreshCoordinator struct {
	store   cache.Store
	lockTTL time.Duration
}

func NewRefreshCoordinator(store cache.Store, lockTTL time.Duration) *RefreshCoordinator {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &RefreshCoordinator{store: store, lockTTL: lockTTL}
}

// Acquire takes the rotation lock for one refresh token id.
func (c *RefreshCoordinator) Acquire(ctx context.Context, jti string) error {
	ok, err := c.store.SetIfAbsent(ctx, refreshLockPrefix+jti, "1", c.lockTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrLockContention
	}
	return nil
}

// Release drops the lock. Called on both success and failure paths; if the
// holder crashes first the TTL releases it instead.
func (c *RefreshCoordinator) Release(ctx context.Context, jti string) error {
	if err := c.store.Delete(ctx, refreshLockPrefix+jti); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
