package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserDisabled       = errors.New("account is disabled")

	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrWrongTokenType = errors.New("wrong token type")

	ErrLockContention   = errors.New("refresh already in progress")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAccountLocked    = errors.New("too many failed login attempts")
)

// LockoutError carries the remaining lockout duration so callers can
// report a retry_after value. It matches ErrAccountLocked in errors.Is.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry after %s", e.RetryAfter)
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}
