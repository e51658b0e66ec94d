package handler

import (
	"coursechat/backend/internal/chathub"
	"coursechat/backend/internal/storage"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler містить посилання на ChatHub та сховище
type Handler struct {
	Hub     *chathub.ManagerService
	Storage storage.Storage

	// JWTSecret signs /token responses. When empty, room sockets are open.
	JWTSecret      []byte
	TokenTTL       time.Duration
	SendBufferSize int
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, jwtSecret string, tokenTTL time.Duration, sendBuffer int) *Handler {
	return &Handler{
		Hub:            hub,
		Storage:        s,
		JWTSecret:      []byte(jwtSecret),
		TokenTTL:       tokenTTL,
		SendBufferSize: sendBuffer,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	r.GET("/stats", h.GetStats)
	r.GET("/token", h.GetToken)

	rooms := r.Group("/rooms/:topic")
	rooms.GET("/ws", h.ServeWebSocket)
	rooms.GET("/messages", h.GetRoomMessages)

	channels := r.Group("/channels")
	channels.GET("", h.ListChannels)
	channels.POST("", h.CreateChannel)
}
