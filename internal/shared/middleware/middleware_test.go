package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"chatly/internal/auth"
	"chatly/internal/shared/config"
	"chatly/pkg/cache"
)

// fakeStore is an in-memory cache.Store; Get can be forced to fail to
// exercise the fail-closed path.
type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func (f *fakeStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 1, nil
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (f *fakeStore) TTL(ctx context.Context, key string) (time.Duration, error) { return 0, nil }

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

const gateTestSecret = "gate-test-secret-key-long-enough-00"

type gateFixture struct {
	engine      *gin.Engine
	codec       *auth.TokenCodec
	revocations *auth.RevocationStore
	store       *fakeStore
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec := auth.NewTokenCodec(config.JWTConfig{
		Secret:     gateTestSecret,
		Issuer:     "chatly",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	store := newFakeStore()
	revocations := auth.NewRevocationStore(store)

	allowlist := NewAllowlist([]string{"/health", "/api/v1/auth/login", "/docs/*"})

	engine := gin.New()
	engine.Use(AuthGate(codec, revocations, allowlist))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	engine.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "login"})
	})
	engine.GET("/docs/openapi.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"docs": true})
	})
	engine.GET("/api/v1/me", func(c *gin.Context) {
		userID := c.GetString(CtxUserID)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	engine.GET("/api/v1/admin/stats", RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"stats": true})
	})
	engine.GET("/api/v1/chat/stream", RequireRole("USER", "ADMIN"), func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		for _, chunk := range []string{"hello ", "world"} {
			c.SSEvent("message", chunk)
		}
		c.SSEvent("done", "")
	})

	return &gateFixture{engine: engine, codec: codec, revocations: revocations, store: store}
}

func (f *gateFixture) request(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *gateFixture) accessToken(t *testing.T, role string) (string, *auth.JWTClaims) {
	t.Helper()
	signed, claims, err := f.codec.Issue("user-1", "alice@example.com", role, auth.TokenTypeAccess)
	require.NoError(t, err)
	return signed, claims
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestAuthGate_PublicPathBypassesGate(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/v1/auth/login", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGate_PrefixAllowlistEntry(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodGet, "/docs/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGate_MissingToken(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", errorCode(t, rec))
}

func TestAuthGate_MalformedAuthorizationHeader(t *testing.T) {
	f := newGateFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", errorCode(t, rec))
}

func TestAuthGate_InvalidToken(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/me", "not-a-real-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_INVALID", errorCode(t, rec))
}

func TestAuthGate_ExpiredToken(t *testing.T) {
	f := newGateFixture(t)

	expiredCodec := auth.NewTokenCodec(config.JWTConfig{
		Secret:     gateTestSecret,
		Issuer:     "chatly",
		AccessTTL:  -time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	signed, _, err := expiredCodec.Issue("user-1", "alice@example.com", "USER", auth.TokenTypeAccess)
	require.NoError(t, err)

	rec := f.request(t, http.MethodGet, "/api/v1/me", signed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestAuthGate_RefreshTokenRejectedOnProtectedRoute(t *testing.T) {
	f := newGateFixture(t)

	signed, _, err := f.codec.Issue("user-1", "alice@example.com", "USER", auth.TokenTypeRefresh)
	require.NoError(t, err)

	rec := f.request(t, http.MethodGet, "/api/v1/me", signed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_INVALID", errorCode(t, rec))
}

func TestAuthGate_RevokedToken(t *testing.T) {
	f := newGateFixture(t)

	signed, claims := f.accessToken(t, "USER")
	require.NoError(t, f.revocations.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	rec := f.request(t, http.MethodGet, "/api/v1/me", signed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_REVOKED", errorCode(t, rec))
}

func TestAuthGate_FailsClosedWhenStoreDown(t *testing.T) {
	f := newGateFixture(t)
	f.store.getErr = errors.New("connection refused")

	signed, _ := f.accessToken(t, "USER")

	rec := f.request(t, http.MethodGet, "/api/v1/me", signed)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_REVOKED", errorCode(t, rec))
}

func TestAuthGate_ValidTokenInjectsIdentity(t *testing.T) {
	f := newGateFixture(t)

	signed, _ := f.accessToken(t, "USER")

	rec := f.request(t, http.MethodGet, "/api/v1/me", signed)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "user-1", body.UserID)
}

func TestAuthGate_OptionsPreflightPassesThrough(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodOptions, "/api/v1/me", "")
	require.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_Forbidden(t *testing.T) {
	f := newGateFixture(t)

	signed, _ := f.accessToken(t, "USER")

	rec := f.request(t, http.MethodGet, "/api/v1/admin/stats", signed)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN_ROLE", errorCode(t, rec))
}

func TestRequireRole_Allowed(t *testing.T) {
	f := newGateFixture(t)

	signed, _ := f.accessToken(t, "ADMIN")

	rec := f.request(t, http.MethodGet, "/api/v1/admin/stats", signed)
	require.Equal(t, http.StatusOK, rec.Code)
}

// The gate's decision lands before a streaming handler writes anything:
// a denied request gets a complete JSON error body, an authorized one
// streams unimpeded.
func TestAuthGate_StreamingRoute(t *testing.T) {
	f := newGateFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/chat/stream", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "TOKEN_MISSING", errorCode(t, rec))

	signed, _ := f.accessToken(t, "USER")
	rec = f.request(t, http.MethodGet, "/api/v1/chat/stream", signed)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "hello")
	require.Contains(t, rec.Body.String(), "event:done")
}

func TestAllowlist_Normalization(t *testing.T) {
	allowlist := NewAllowlist([]string{"/health", "/api/v1/auth/login/", "/docs/*"})

	require.True(t, allowlist.Contains("/health"))
	require.True(t, allowlist.Contains("/health/"))
	require.True(t, allowlist.Contains("/api/v1/auth/login"))
	require.True(t, allowlist.Contains("/docs/anything/nested"))
	require.False(t, allowlist.Contains("/api/v1/me"))
	require.False(t, allowlist.Contains("/healthcheck"))
}

func TestAllowlist_RootPath(t *testing.T) {
	allowlist := NewAllowlist([]string{"/"})

	require.True(t, allowlist.Contains("/"))
	require.False(t, allowlist.Contains("/api/v1/me"))
}
