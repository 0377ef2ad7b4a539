package chat

import (
	"chatly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles chat-related routes
type Router struct {
	controller *Controller
}

// NewRouter creates a new chat router
func NewRouter(controller *Controller) *Router {
	return &Router{
		controller: controller,
	}
}

// SetupRoutes registers chat routes. The engine-level auth gate has
// already authenticated these requests; the role guard is attached
// explicitly per group.
func (chatRouter *Router) SetupRoutes(rg *gin.RouterGroup) {
	chat := rg.Group("/chat")
	chat.Use(middleware.RequireRole("USER", "ADMIN"))
	{
		chat.POST("", chatRouter.controller.Chat)
		chat.POST("/stream", chatRouter.controller.StreamChat)
	}

	conversations := rg.Group("/conversations")
	conversations.Use(middleware.RequireRole("USER", "ADMIN"))
	{
		conversations.GET("", chatRouter.controller.ListConversations)
	}
}
