package handler

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"

	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/gateway"
	"real-time-messenger/hub"
	"real-time-messenger/middleware"
)

type WebSocketHandler struct {
	*gateway.Gateway
	Log          *logger.AppLogger
	PingInterval time.Duration
	PongWait     time.Duration
}

func NewWebSocketHandler(gw *gateway.Gateway, logger *logger.AppLogger, pingInterval, pongWait time.Duration) *WebSocketHandler {
	if pongWait <= pingInterval {
		pongWait = pingInterval * 2
	}
	return &WebSocketHandler{Gateway: gw, Log: logger, PingInterval: pingInterval, PongWait: pongWait}
}

// HandleWebSocket runs for the lifetime of one connection. Frames are read and
// dispatched one at a time so a client's events are handled in order.
func (handler *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	profile, ok := c.Locals(middleware.LocalProfile).(res.UserProfile)
	if !ok {
		handler.Log.WS.Error.Error().Msg("Websocket opened without an authenticated profile")
		_ = c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := handler.Gateway.Connect(ctx, hub.NewClient(profile.ID, c), profile)
	defer handler.Gateway.Disconnect(context.Background(), conn)

	_ = c.SetReadDeadline(time.Now().Add(handler.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(handler.PongWait))
	})
	go handler.keepAlive(ctx, c, conn.Client.ID)

	for {
		messageType, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				handler.Log.WS.Warning.Warn().Err(err).Str("userId", profile.ID).Msg("Read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		handler.Gateway.Dispatch(ctx, conn, raw)
	}
}

func (handler *WebSocketHandler) keepAlive(ctx context.Context, c *websocket.Conn, clientID string) {
	ticker := time.NewTicker(handler.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(handler.PingInterval)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				handler.Log.WS.Trace.Trace().Err(err).Str("clientId", clientID).Msg("Ping failed")
				_ = c.Close()
				return
			}
		}
	}
}
