package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"chatly/pkg/cache"
)

// fakeStore is an in-memory cache.Store for tests. Expiry is honored on
// read, and individual operations can be forced to fail.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]fakeEntry

	// failing maps an operation name ("get", "set", ...) to the error it
	// should return.
	failing map[string]error
}

type fakeEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[string]fakeEntry),
		failing: make(map[string]error),
	}
}

func (f *fakeStore) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[op] = err
}

func (f *fakeStore) expired(e fakeEntry) bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// forceExpire backdates a key's expiry so tests can cross the window
// boundary without sleeping.
func (f *fakeStore) forceExpire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[key]; ok {
		e.expiresAt = time.Now().Add(-time.Second)
		f.entries[key] = e
	}
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return ok && !f.expired(e)
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["set"]; err != nil {
		return err
	}
	entry := fakeEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	f.entries[key] = entry
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["get"]; err != nil {
		return "", err
	}
	e, ok := f.entries[key]
	if !ok || f.expired(e) {
		delete(f.entries, key)
		return "", cache.ErrCacheMiss
	}
	return e.value, nil
}

func (f *fakeStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["setifabsent"]; err != nil {
		return false, err
	}
	if e, ok := f.entries[key]; ok && !f.expired(e) {
		return false, nil
	}
	entry := fakeEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	f.entries[key] = entry
	return true, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["delete"]; err != nil {
		return err
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["increment"]; err != nil {
		return 0, err
	}
	e, ok := f.entries[key]
	if !ok || f.expired(e) {
		f.entries[key] = fakeEntry{value: "1", expiresAt: time.Now().Add(ttl)}
		return 1, nil
	}
	n, _ := strconv.ParseInt(e.value, 10, 64)
	n++
	e.value = strconv.FormatInt(n, 10)
	f.entries[key] = e
	return n, nil
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["expire"]; err != nil {
		return err
	}
	if e, ok := f.entries[key]; ok {
		e.expiresAt = time.Now().Add(ttl)
		f.entries[key] = e
	}
	return nil
}

func (f *fakeStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["ttl"]; err != nil {
		return 0, err
	}
	e, ok := f.entries[key]
	if !ok || f.expired(e) {
		return -2 * time.Second, nil
	}
	if e.expiresAt.IsZero() {
		return -1 * time.Second, nil
	}
	return time.Until(e.expiresAt), nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failing["ping"]; err != nil {
		return err
	}
	return nil
}
