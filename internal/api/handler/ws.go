package handler

import (
	"coursechat/backend/internal/chathub"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket і додає його до кімнати :topic
func (h *Handler) ServeWebSocket(c *gin.Context) {
	topic := c.Param("topic")
	if topic == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Room topic missing"})
		return
	}

	// Токен потрібен лише коли налаштовано JWT_SECRET
	if len(h.JWTSecret) > 0 {
		if _, err := h.validateToken(c.Query("token")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Printf("WARNING: Failed to upgrade connection for room %s: %v", topic, err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, topic, h.SendBufferSize)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}

	// client.Run() сам запустить необхідні goroutines
	client.Run()
}
