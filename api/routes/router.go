package routes

import (
	"net/http"
	"time"

	"chatly/internal/audit"
	"chatly/internal/auth"
	"chatly/internal/chat"
	"chatly/internal/shared/config"
	"chatly/internal/shared/database"
	"chatly/internal/shared/middleware"
	"chatly/pkg/cache"
	"chatly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config  *config.Config
	db      *database.DB
	auditor audit.Publisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, auditor audit.Publisher) *Router {
	return &Router{
		config:  cfg,
		db:      db,
		auditor: auditor,
	}
}

// SetupRoutes configures all application routes. The auth gate runs at
// engine level so every route except the configured public paths is
// authenticated before any handler starts.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	store := cache.NewRedisStore(r.db.GetRedisClient(), r.config.Redis.OpTimeout)

	codec := auth.NewTokenCodec(r.config.JWT)
	revocations := auth.NewRevocationStore(store)
	attempts := auth.NewAttemptTracker(store, r.config.Lockout)
	refreshLocks := auth.NewRefreshCoordinator(store, r.config.JWT.RefreshLockTTL)

	allowlist := middleware.NewAllowlist(r.config.PublicPaths)
	engine.Use(middleware.AuthGate(codec, revocations, allowlist))

	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api, codec, revocations, attempts, refreshLocks)
		r.setupChatRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "chatly-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "chatly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(
	rg *gin.RouterGroup,
	codec *auth.TokenCodec,
	revocations *auth.RevocationStore,
	attempts *auth.AttemptTracker,
	refreshLocks *auth.RefreshCoordinator,
) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, codec, revocations, attempts, refreshLocks,
		r.auditor, r.config.Lockout, logger.GetDefault())
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController)

	authRouter.SetupRoutes(rg)
}

// setupChatRoutes configures conversation routes
func (r *Router) setupChatRoutes(rg *gin.RouterGroup) {
	chatRepo := chat.NewRepository(r.db.GetPostgreSQL())
	chatService := chat.NewService(chatRepo)
	chatController := chat.NewController(chatService)
	chatRouter := chat.NewRouter(chatController)

	chatRouter.SetupRoutes(rg)
}
