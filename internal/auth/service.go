package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"chatly/internal/audit"
	"chatly/internal/shared/config"
	"chatly/internal/users"
	"chatly/pkg/logger"
)

// dummyPasswordHash is compared against when the email is unknown, so a
// login attempt costs the same bcrypt work whether or not the account
// exists.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("chatly-dummy-credential"), bcrypt.DefaultCost)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, access *JWTClaims, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type service struct {
	repo         Repository
	codec        *TokenCodec
	revocations  *RevocationStore
	attempts     *AttemptTracker
	refreshLocks *RefreshCoordinator
	auditor      audit.Publisher
	lockoutCfg   config.LockoutConfig
	log          *logger.Logger
}

func NewService(
	repo Repository,
	codec *TokenCodec,
	revocations *RevocationStore,
	attempts *AttemptTracker,
	refreshLocks *RefreshCoordinator,
	auditor audit.Publisher,
	lockoutCfg config.LockoutConfig,
	log *logger.Logger,
) Service {
	return &service{
		repo:         repo,
		codec:        codec,
		revocations:  revocations,
		attempts:     attempts,
		refreshLocks: refreshLocks,
		auditor:      auditor,
		lockoutCfg:   lockoutCfg,
		log:          log,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := strings.ToUpper(req.Role)
	if !users.IsValidRole(role) {
		role = string(users.RoleUser)
	}

	user := &users.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      users.Role(role),
		IsActive:  true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	tokenPair, err := s.codec.IssuePair(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, audit.NewEvent(audit.EventUserRegistered, user.ID.String(), user.Email))

	return newAuthResponse(user, tokenPair), nil
}

// Login authenticates a user. The lockout check runs strictly before any
// password comparison so a locked identifier never triggers bcrypt work.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	locked, remaining, err := s.attempts.IsLocked(ctx, req.Email)
	if err != nil {
		if !s.lockoutCfg.FailOpen {
			return nil, &LockoutError{RetryAfter: s.lockoutCfg.Duration}
		}
		// Fail-open: throttle state is unknown, let the credential
		// check (slow by construction) bound the attacker.
		s.log.WithError(err).Warn("login throttle check degraded, continuing")
	} else if locked {
		s.publishAudit(ctx, audit.NewEvent(audit.EventLockout, req.Email, req.Email))
		return nil, &LockoutError{RetryAfter: remaining}
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Equalize timing with a real comparison
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(req.Password))
			s.recordFailure(ctx, req.Email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, req.Email)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if err := s.attempts.RecordSuccess(ctx, req.Email); err != nil {
		s.log.WithError(err).Warn("failed to reset login attempts")
	}

	tokenPair, err := s.codec.IssuePair(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, audit.NewEvent(audit.EventLoginSucceeded, user.ID.String(), user.Email))

	return newAuthResponse(user, tokenPair), nil
}

// Logout revokes the presented access token for its remaining lifetime and,
// when a refresh token accompanies the request, revokes that too on a
// best-effort basis.
func (s *service) Logout(ctx context.Context, access *JWTClaims, refreshToken string) error {
	if err := s.revocations.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
		return err
	}

	if refreshToken != "" {
		if claims, err := s.codec.Verify(refreshToken); err == nil && claims.Type == TokenTypeRefresh {
			if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				s.log.WithError(err).Warn("failed to revoke refresh token on logout")
			} else {
				s.publishAudit(ctx, audit.NewEvent(audit.EventTokenRevoked, access.UserID, access.Email).
					WithMetadata("jti", claims.ID))
			}
		}
	}

	s.publishAudit(ctx, audit.NewEvent(audit.EventLogout, access.UserID, access.Email))
	return nil
}

// Refresh rotates a refresh token under the distributed lock: exactly one
// of any concurrent callers presenting the same token proceeds, the rest
// fail immediately with ErrLockContention. The old token id is revoked
// before the new pair is returned, enforcing one-time use.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Type != TokenTypeRefresh {
		return nil, ErrWrongTokenType
	}

	if err := s.refreshLocks.Acquire(ctx, claims.ID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.refreshLocks.Release(ctx, claims.ID); err != nil {
			s.log.WithError(err).Warn("failed to release refresh lock")
		}
	}()

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if revoked {
		// Covers both a genuinely revoked token and a store outage,
		// which is fail-closed here.
		if err != nil {
			s.log.WithError(err).Warn("revocation check degraded during refresh, denying")
		}
		return nil, ErrTokenRevoked
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	tokenPair, err := s.codec.IssuePair(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.publishAudit(ctx, audit.NewEvent(audit.EventTokenRefreshed, user.ID.String(), user.Email).
		WithMetadata("rotated_jti", claims.ID))

	return tokenPair, nil
}

func (s *service) recordFailure(ctx context.Context, identifier string) {
	count, err := s.attempts.RecordFailure(ctx, identifier)
	if err != nil {
		s.log.WithError(err).Warn("failed to record login failure")
		return
	}

	event := audit.NewEvent(audit.EventLoginFailed, identifier, identifier)
	if count >= int64(s.lockoutCfg.MaxAttempts) {
		event = audit.NewEvent(audit.EventLockout, identifier, identifier)
	}
	s.publishAudit(ctx, event)
}

func (s *service) publishAudit(ctx context.Context, event *audit.Event) {
	if err := s.auditor.Publish(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to publish audit event")
	}
}

func newAuthResponse(user *users.User, tokenPair *TokenPair) *AuthResponse {
	return &AuthResponse{
		User: UserResponse{
			ID:        user.ID.String(),
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}
}
