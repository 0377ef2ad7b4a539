package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when a key does not exist in the store.
	ErrCacheMiss = errors.New("cache miss")
)

// Store is the shared expiring key-value store used for all cross-instance
// coordination: revocation markers, login attempt counters and refresh locks.
// Every operation is a blocking I/O boundary and carries a bounded timeout.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Ping(ctx context.Context) error
}

type redisStore struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedisStore wraps a Redis client as a Store. Each call is bounded by
// opTimeout so a slow or unreachable Redis never stalls a request.
func NewRedisStore(client *redis.Client, opTimeout time.Duration) Store {
	if opTimeout <= 0 {
		opTimeout = 3 * time.Second
	}
	return &redisStore{client: client, opTimeout: opTimeout}
}

func (s *redisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache get error: %w", err)
	}
	return val, nil
}

func (s *redisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx error: %w", err)
	}
	return ok, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// IncrementWithTTL increments a counter and, when the increment creates the
// key, starts its expiry window in the same atomic step.
func (s *redisStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// Lua script so a crash between INCR and EXPIRE cannot leave an
	// immortal counter behind
	luaScript := `
		local count = redis.call('INCR', KEYS[1])
		if count == 1 then
			redis.call('EXPIRE', KEYS[1], ARGV[1])
		end
		return count
	`

	result, err := s.client.Eval(ctx, luaScript, []string{key}, int(ttl.Seconds())).Result()
	if err != nil {
		return 0, fmt.Errorf("cache incr error: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("cache incr error: unexpected reply %v", result)
	}
	return count, nil
}

func (s *redisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire error: %w", err)
	}
	return nil
}

func (s *redisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("cache ttl error: %w", err)
	}
	return ttl, nil
}

func (s *redisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.client.Ping(ctx).Err()
}
