package websocket

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ReadPump forwards client frames to Hub.InboundMessages until the connection
// fails. It runs on the connection handler goroutine.
func (c *Client) ReadPump(ctx context.Context) {
	log := c.Hub.log.With(zap.String("clientID", c.ID), zap.String("auctionID", c.AuctionID.String()))
	defer c.Hub.UnregisterClient(c)

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			} else {
				log.Debug("WebSocket connection closed by peer", zap.Error(err))
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		case <-ctx.Done():
			return
		default:
			log.Error("Hub InboundMessages channel is full, dropping message")
		}
	}
}

// WritePump writes queued frames and keepalive pings. It is the only writer
// of the connection.
func (c *Client) WritePump(ctx context.Context) {
	log := c.Hub.log.With(zap.String("clientID", c.ID), zap.String("auctionID", c.AuctionID.String()))
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("WebSocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("WebSocket ping failed", zap.Error(err))
				return
			}
		}
	}
}
