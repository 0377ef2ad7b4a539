package middleware

import (
	"net/http"
	"strings"

	"chatly/internal/auth"
	"chatly/internal/shared/constants"
	"chatly/internal/shared/utils/response"
	"chatly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys populated by the auth gate, re-exported from the shared
// constants package for handlers that already import this one.
const (
	CtxUserID    = constants.CtxUserID
	CtxUserEmail = constants.CtxUserEmail
	CtxUserRole  = constants.CtxUserRole
	CtxTokenJTI  = constants.CtxTokenJTI
	CtxTokenExp  = constants.CtxTokenExp
)

// Allowlist holds the public paths that bypass the auth gate.
type Allowlist struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewAllowlist builds an allow-list from exact paths. Entries ending in
// "/*" match by prefix.
func NewAllowlist(paths []string) *Allowlist {
	al := &Allowlist{exact: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		if strings.HasSuffix(p, "/*") {
			al.prefixes = append(al.prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		al.exact[normalizePath(p)] = struct{}{}
	}
	return al
}

// Contains reports whether the path bypasses the gate.
func (al *Allowlist) Contains(path string) bool {
	if _, ok := al.exact[normalizePath(path)]; ok {
		return true
	}
	for _, prefix := range al.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func normalizePath(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

// AuthGate intercepts every inbound request before any handler runs,
// including streaming ones: the allow/deny decision and any denial body
// are written before a handler can begin producing output, and an
// authorized request passes straight through with no buffering.
//
// Order per request: allow-list, bearer extraction, signature/expiry
// verification, token type, revocation. Revocation-store failures are
// fail-closed.
func AuthGate(codec *auth.TokenCodec, revocations *auth.RevocationStore, allow *Allowlist) gin.HandlerFunc {
	log := logger.GetDefault()

	return func(c *gin.Context) {
		// CORS preflight never carries credentials
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if allow.Contains(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			deny(c, "TOKEN_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			deny(c, "TOKEN_MISSING", "authorization header format must be Bearer {token}")
			return
		}

		claims, err := codec.Verify(parts[1])
		if err != nil {
			switch err {
			case auth.ErrTokenExpired:
				deny(c, "TOKEN_EXPIRED", "token has expired")
			default:
				deny(c, "TOKEN_INVALID", "invalid token")
			}
			return
		}

		if claims.Type != auth.TokenTypeAccess {
			deny(c, "TOKEN_INVALID", "invalid token type")
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if revoked {
			if err != nil {
				log.LogStoreDegraded(c.Request.Context(), "revocation check", "fail-closed", err)
			}
			deny(c, "TOKEN_REVOKED", "token has been revoked")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxTokenJTI, claims.ID)
		c.Set(CtxTokenExp, claims.ExpiresAt.Time)

		c.Next()
	}
}

func deny(c *gin.Context, code, message string) {
	response.RespondError(c, http.StatusUnauthorized, code, message, nil)
	c.Abort()
}

// RequireRole checks if the authenticated identity has any of the given roles
func RequireRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(CtxUserRole)
		if !exists {
			response.RespondError(c, http.StatusUnauthorized, "TOKEN_MISSING", "user role not found in context", nil)
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if userRole.(string) == role {
				c.Next()
				return
			}
		}

		response.RespondError(c, http.StatusForbidden, "FORBIDDEN_ROLE", "insufficient permissions", nil)
		c.Abort()
	}
}

// RequireAdmin requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("ADMIN")
}
