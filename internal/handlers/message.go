package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/warbler-app/warbler/internal/apperrors"
	"github.com/warbler-app/warbler/internal/metrics"
	"github.com/warbler-app/warbler/internal/middleware"
	"github.com/warbler-app/warbler/internal/services"
)

type MessageHandler struct {
	content   *services.ContentService
	feedLimit int
}

func NewMessageHandler(content *services.ContentService, feedLimit int) *MessageHandler {
	return &MessageHandler{content: content, feedLimit: feedLimit}
}

type postMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.content.PostMessage(c.Request.Context(), middleware.CurrentUser(c), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.IncMessagePosted()

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	message, err := h.content.GetMessage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	likeCount, err := h.content.LikeCount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"like_count": likeCount,
	})
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	if err := h.content.DeleteMessage(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *MessageHandler) Like(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	if err := h.content.Like(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	metrics.IncLike("like")

	c.JSON(http.StatusOK, gin.H{"message": "liked"})
}

func (h *MessageHandler) Unlike(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
		return
	}

	if err := h.content.Unlike(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	metrics.IncLike("unlike")

	c.JSON(http.StatusOK, gin.H{"message": "unliked"})
}

// GetFeed serves the home timeline. Anonymous callers get the logged-out
// view marker rather than an empty feed.
func (h *MessageHandler) GetFeed(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	messages, err := h.content.GetFeed(c.Request.Context(), actor, h.feedLimit)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
