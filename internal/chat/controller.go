package chat

import (
	"errors"
	"io"
	"net/http"

	"chatly/internal/shared/middleware"
	"chatly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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

func (c *Controller) Chat(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_MISSING", "User not authenticated", nil)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	resp, err := c.service.Send(ctx.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Chat session not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process chat", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Chat processed successfully", resp, nil)
}

// StreamChat streams the reply as Server-Sent Events. The auth gate has
// already made its allow/deny decision before this handler starts writing.
func (c *Controller) StreamChat(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_MISSING", "User not authenticated", nil)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	events, err := c.service.Stream(ctx.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Chat session not found", nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to process chat", nil, nil)
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ctx.Stream(func(w io.Writer) bool {
		event, open := <-events
		if !open {
			return false
		}
		ctx.SSEvent(event.Event, event.Data)
		return true
	})
}

func (c *Controller) ListConversations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, "TOKEN_MISSING", "User not authenticated", nil)
		return
	}

	conversations, err := c.service.ListConversations(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list conversations", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Conversations retrieved successfully", conversations, nil)
}

func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get(middleware.CtxUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw.(string))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
