package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStats reports open rooms, connections and relay counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats := h.Hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":  stats,
		"topics": h.Hub.RoomTopics(),
	})
}

// Health pings the database and Redis.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.Storage.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
