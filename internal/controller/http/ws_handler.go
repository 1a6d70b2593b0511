package http

import (
	"context"
	"net/http"

	"notihub/internal/realtime"
	"notihub/pkg/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and forwards the user's push
// envelopes from Redis pub/sub. Browsers cannot set headers on a websocket
// dial, so the token arrives as a query parameter when the auth middleware
// did not already run.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	if userID == "" {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
			return
		}

		claims, err := h.jwtService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID = claims.UserID
	}

	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket connected for user %s", userID)

	ctx := context.Background()
	pubsub := h.redisClient.Subscribe(ctx, realtime.ChannelFor(userID))
	defer pubsub.Close()

	// Seed the session with the current unread count so a reconnecting
	// client converges without an extra fetch.
	if count, err := h.notificationUseCase.UnreadCount(userID); err == nil {
		if payload, err := events.UnreadCount(int(count)); err == nil {
			conn.WriteMessage(websocket.TextMessage, payload)
		}
	}

	redisChannel := pubsub.Channel()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case msg := <-redisChannel:
				if msg == nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					h.logger.Error("Failed to write WebSocket message: %v", err)
					return
				}
			}
		}
	}()

	for {
		messageType, _, err := conn.ReadMessage()
		if err != nil {
			h.logger.Warn("WebSocket read error: %v", err)
			break
		}
		if messageType == websocket.CloseMessage {
			break
		}
		if messageType == websocket.PingMessage {
			conn.WriteMessage(websocket.PongMessage, nil)
		}
	}

	close(done)
	h.logger.Info("WebSocket disconnected for user %s", userID)
}
