package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"chatly/internal/shared/config"
)

// TokenCodec issues and verifies signed identity tokens. It is pure:
// no I/O, no shared mutable state, safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(cfg config.JWTConfig) *TokenCodec {
	return &TokenCodec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// Issue signs a token of the given type with a fresh jti. Access tokens get
// the short TTL, refresh tokens the long one.
func (c *TokenCodec) Issue(userID, email, role, tokenType string) (string, *JWTClaims, error) {
	now := time.Now()

	ttl := c.accessTTL
	if tokenType == TokenTypeRefresh {
		ttl = c.refreshTTL
	}

	claims := &JWTClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// IssuePair issues an access/refresh token pair for one identity.
func (c *TokenCodec) IssuePair(userID, email, role string) (*TokenPair, error) {
	accessToken, _, err := c.Issue(userID, email, role, TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	refreshToken, _, err := c.Issue(userID, email, role, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(c.accessTTL.Seconds()),
	}, nil
}

// Verify parses and validates a signed token. Failures are reported in a
// fixed order: malformed encoding, then signature, then expiry, so a
// tampered token never reveals whether the embedded expiry was real.
func (c *TokenCodec) Verify(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})

	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) {
			switch {
			case vErr.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
				return nil, ErrTokenInvalid
			case vErr.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeRefresh {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
