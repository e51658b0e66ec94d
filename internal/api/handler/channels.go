package handler

import (
	"coursechat/backend/internal/models"
	"coursechat/backend/internal/storage"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type createChannelRequest struct {
	Topic string `json:"topic" binding:"required"`
	Name  string `json:"name"`
}

// MessageDTO is a stored message as served by the history endpoint.
type MessageDTO struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"userId"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMessageDTO(m models.ChatMessage, _ int) MessageDTO {
	return MessageDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		Sender:    m.Sender,
		Message:   m.Content,
		ImageURL:  m.ImageURL,
		Timestamp: m.CreatedAt.UnixMilli(),
		CreatedAt: m.CreatedAt,
	}
}

// CreateChannel maps a room topic to a new channel.
func (h *Handler) CreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := &models.Channel{Topic: req.Topic, Name: req.Name}
	err := h.Storage.CreateChannel(c.Request.Context(), channel)
	if errors.Is(err, storage.ErrChannelExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel"})
		return
	}

	log.Printf("INFO: Channel %s created for topic %s", channel.ID, channel.Topic)
	c.JSON(http.StatusCreated, channel)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels, err := h.Storage.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list channels"})
		return
	}
	c.JSON(http.StatusOK, channels)
}

// GetRoomMessages returns the latest messages stored for the channel of :topic, oldest first.
func (h *Handler) GetRoomMessages(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx := c.Request.Context()
	channel, err := h.Storage.FindChannelByTopic(ctx, c.Param("topic"))
	if errors.Is(err, storage.ErrChannelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve channel"})
		return
	}

	history, err := h.Storage.GetChannelHistory(ctx, channel.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":     channel.Topic,
		"channelId": channel.ID,
		"messages":  lo.Map(history, toMessageDTO),
	})
}
