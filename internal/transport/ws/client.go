// Package ws is the WebSocket transport for the broadcast hub. It upgrades
// HTTP connections, decodes client event envelopes into hub calls, and
// delivers outbox payloads back to the peer.
package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkarlsen/roomcast/internal/hub"
	"github.com/mkarlsen/roomcast/internal/session"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer.
	pongWait = 60 * time.Second
	// pingPeriod is the keepalive interval; must be less than pongWait.
	pingPeriod = 54 * time.Second
	// maxMessageSize limits inbound frames.
	maxMessageSize = 4096
)

// Client is one WebSocket connection bound to the hub. The read pump turns
// inbound envelopes into hub events; the write pump drains the outbox.
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *hub.Hub
	outbox *session.Outbox
	logger *zap.Logger
}

func newClient(id string, conn *websocket.Conn, h *hub.Hub, logger *zap.Logger, outboxBuffer int) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		hub:    h,
		outbox: session.NewOutbox(id, outboxBuffer),
		logger: logger,
	}
}

// readPump reads envelopes from the peer until the connection dies, then
// signals the implicit disconnect event. Closing the outbox ends the write
// pump.
func (c *Client) readPump(done func()) {
	defer func() {
		c.hub.Disconnect(c.id)
		_ = c.outbox.Close()
		_ = c.conn.Close()
		done()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read failed",
					zap.String("id", c.id),
					zap.Error(err),
				)
			} else {
				c.logger.Debug("client disconnected",
					zap.String("id", c.id),
					zap.Error(err),
				)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one envelope and routes it to the hub. Malformed or
// unknown events are logged and ignored; no feedback goes to the sender.
func (c *Client) dispatch(raw []byte) {
	var env hub.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Debug("malformed envelope dropped",
			zap.String("id", c.id),
			zap.Error(err),
		)
		return
	}

	switch env.Event {
	case hub.EventJoinRoom:
		var req hub.JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			c.logger.Debug("malformed join payload dropped",
				zap.String("id", c.id),
				zap.Error(err),
			)
			return
		}
		c.hub.Join(c.id, req.Nickname, req.Room, c.outbox)

	case hub.EventChatMessage:
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			c.logger.Debug("malformed chat payload dropped",
				zap.String("id", c.id),
				zap.Error(err),
			)
			return
		}
		c.hub.Message(c.id, text)

	default:
		c.logger.Debug("unknown event dropped",
			zap.String("id", c.id),
			zap.String("event", env.Event),
		)
	}
}

// writePump delivers outbox payloads to the peer and sends keepalive pings.
// It exits when the outbox closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.outbox.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed",
					zap.String("id", c.id),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
