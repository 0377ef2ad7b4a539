package auth

import (
	"errors"
	"net/http"
	"time"

	"chatly/internal/shared/constants"
	"chatly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	resp, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.RespondError(ctx, http.StatusConflict, "USER_ALREADY_EXISTS", "User with this email already exists", nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to register user", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "User registered successfully", resp, nil)
}

func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	resp, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		var lockout *LockoutError
		switch {
		case errors.As(err, &lockout):
			response.RespondError(ctx, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
				"Too many failed login attempts. Please try again later.",
				gin.H{"retry_after": int64(lockout.RetryAfter.Seconds())})
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserDisabled):
			response.RespondError(ctx, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to login", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Login successful", resp, nil)
}

func (c *Controller) RefreshToken(ctx *gin.Context) {
	var req RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	tokenPair, err := c.service.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_EXPIRED", "Refresh token has expired", nil)
		case errors.Is(err, ErrTokenRevoked):
			response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_REVOKED", "Refresh token has been revoked", nil)
		case errors.Is(err, ErrLockContention):
			response.RespondError(ctx, http.StatusConflict, "LOCK_CONTENTION", "A refresh for this token is already in progress", nil)
		case errors.Is(err, ErrStoreUnavailable):
			response.RespondError(ctx, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Unable to process refresh right now", nil)
		case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenInvalid),
			errors.Is(err, ErrWrongTokenType), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUserDisabled):
			response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid refresh token", nil)
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to refresh token", nil, nil)
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Token refreshed successfully", tokenPair, nil)
}

// Logout revokes the access token that authenticated this request, using
// the identity the gate injected.
func (c *Controller) Logout(ctx *gin.Context) {
	var req LogoutRequest
	_ = ctx.ShouldBindJSON(&req) // Optional body

	claims, ok := claimsFromContext(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_MISSING", "User not authenticated", nil)
		return
	}

	if err := c.service.Logout(ctx.Request.Context(), claims, req.RefreshToken); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			response.RespondError(ctx, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Unable to process logout right now", nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to logout", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Logged out successfully", nil, nil)
}

func (c *Controller) GetMe(ctx *gin.Context) {
	userID, exists := ctx.Get(constants.CtxUserID)
	if !exists {
		response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_MISSING", "User not authenticated", nil)
		return
	}

	email, _ := ctx.Get(constants.CtxUserEmail)
	role, _ := ctx.Get(constants.CtxUserRole)

	userData := map[string]interface{}{
		"id":    userID,
		"email": email,
		"role":  role,
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", userData, nil)
}

// claimsFromContext rebuilds the access token claims the gate extracted.
func claimsFromContext(ctx *gin.Context) (*JWTClaims, bool) {
	jti, ok := ctx.Get(constants.CtxTokenJTI)
	if !ok {
		return nil, false
	}
	exp, ok := ctx.Get(constants.CtxTokenExp)
	if !ok {
		return nil, false
	}
	userID, _ := ctx.Get(constants.CtxUserID)
	email, _ := ctx.Get(constants.CtxUserEmail)
	role, _ := ctx.Get(constants.CtxUserRole)

	expiresAt, ok := exp.(time.Time)
	if !ok {
		return nil, false
	}

	return &JWTClaims{
		UserID: asString(userID),
		Email:  asString(email),
		Role:   asString(role),
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        asString(jti),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}, true
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
