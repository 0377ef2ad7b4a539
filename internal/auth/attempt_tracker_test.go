package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatly/internal/shared/config"
)

func newTestTracker(store *fakeStore) *AttemptTracker {
	return NewAttemptTracker(store, config.LockoutConfig{
		MaxAttempts: 5,
		Window:      5 * time.Minute,
		Duration:    5 * time.Minute,
	})
}

func TestAttemptTracker_BelowThresholdNotLocked(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}

	locked, _, err := tracker.IsLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptTracker_LocksAtThreshold(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	var count int64
	for i := 0; i < 5; i++ {
		var err error
		count, err = tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}
	require.Equal(t, int64(5), count)

	locked, remaining, err := tracker.IsLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, locked)
	require.Greater(t, remaining, time.Duration(0))
	require.LessOrEqual(t, remaining, 5*time.Minute)
}

func TestAttemptTracker_SuccessResets(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}
	require.NoError(t, tracker.RecordSuccess(ctx, "alice@example.com"))

	locked, _, err := tracker.IsLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, locked)

	// Counter restarts from one after a reset
	count, err := tracker.RecordFailure(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

// The first failure must open the expiry window in the same store
// operation as the increment, so the counter always carries a TTL.
func TestAttemptTracker_FirstFailureOpensWindow(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	_, err := tracker.RecordFailure(ctx, "alice@example.com")
	require.NoError(t, err)

	ttl, err := store.TTL(ctx, "login_attempts:alice@example.com")
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	require.LessOrEqual(t, ttl, 5*time.Minute)
}

func TestAttemptTracker_WindowExpiryResetsCounter(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}

	store.forceExpire("login_attempts:alice@example.com")

	count, err := tracker.RecordFailure(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestAttemptTracker_LockoutExpires(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}

	store.forceExpire("login_lockout:alice@example.com")

	locked, _, err := tracker.IsLocked(ctx, "alice@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptTracker_IdentifiersAreIndependent(t *testing.T) {
	store := newFakeStore()
	tracker := newTestTracker(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := tracker.RecordFailure(ctx, "alice@example.com")
		require.NoError(t, err)
	}

	locked, _, err := tracker.IsLocked(ctx, "bob@example.com")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptTracker_StoreErrorSurfaces(t *testing.T) {
	store := newFakeStore()
	store.failOn("increment", errors.New("connection refused"))
	tracker := newTestTracker(store)

	_, err := tracker.RecordFailure(context.Background(), "alice@example.com")
	require.ErrorIs(t, err, ErrStoreUnavailable)

	store = newFakeStore()
	store.failOn("get", errors.New("connection refused"))
	tracker = newTestTracker(store)

	_, _, err = tracker.IsLocked(context.Background(), "alice@example.com")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
