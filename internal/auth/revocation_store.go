package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatly/pkg/cache"
)

const revocationPrefix = "token_blacklist:"

// RevocationStore records token revocations in the shared store. Each
// marker's TTL equals the remaining lifetime of the token it revokes, so
// no entry ever outlives its token and the store cleans itself up.
type RevocationStore struct {
	store cache.Store
}

func NewRevocationStore(store cache.Store) *RevocationStore {
	return &RevocationStore{store: store}
}

// Revoke blacklists a token id until the token's own expiry. Tokens that
// have already expired need no marker.
func (r *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.store.Set(ctx, revocationPrefix+jti, "1", ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether a token id has been revoked. When the store is
// unreachable the answer is fail-closed: revoked=true alongside
// ErrStoreUnavailable, because honoring a possibly-revoked token is worse
// than denying a valid one.
func (r *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := r.store.Get(ctx, revocationPrefix+jti)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return true, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}
