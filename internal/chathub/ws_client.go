package chathub

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// WebSocketClient реалізує інтерфейс chathub.Client
type WebSocketClient struct {
	ID     string
	RoomID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan []byte
}

// NewWebSocketClient wraps an upgraded connection that joins the room of topic.
func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, topic string, sendBuffer int) *WebSocketClient {
	return &WebSocketClient{
		ID:     uuid.New().String(),
		RoomID: topic,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, sendBuffer),
	}
}

func (c *WebSocketClient) GetID() string                 { return c.ID }
func (c *WebSocketClient) GetRoomID() string             { return c.RoomID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }

// Run запускає 'pumps' для WebSocket
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close закриває Send канал (що зупинить writePump)
func (c *WebSocketClient) Close() {
	close(c.Send)
	// readPump зупиниться сам, коли Conn.Close() буде викликано в writePump
}

// readPump forwards every text frame to the hub untouched.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			log.Printf("WARNING: Ignoring non-text frame from client %s", c.ID)
			continue
		}

		if !c.Hub.Submit(Inbound{Client: c, Payload: message}) {
			return
		}
	}
}

// writePump writes queued frames to the socket, one websocket message per frame.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрито хабом, закриваємо з'єднання WS
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			// Надсилаємо Ping для підтримки з'єднання активним
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
