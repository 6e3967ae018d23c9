package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 256
)

// Client is one websocket connection inside a namespace. Its room
// membership is owned by the hub goroutine.
type Client struct {
	ID   string
	Send chan []byte
	Conn *websocket.Conn // nil for connections driven directly by tests

	hub *Hub
}

// NewClient wraps conn with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBuffer),
		Conn: conn,
		hub:  hub,
	}
}

// ReadPump reads envelopes from the connection until it closes, then
// unregisters the client. It runs in its own goroutine per connection.
func (c *Client) ReadPump(ctx context.Context) {
	logger := log.With().Str("module", "ws.client").Str("namespace", c.hub.ns.Name).Str("conn", c.ID).Logger()
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
		logger.Debug().Msg("read pump closed")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.Deliver(c, errorFrame("BadRequest", "malformed frame"))
			continue
		}
		c.hub.HandleEnvelope(ctx, c, env)
	}
}

// WritePump forwards frames queued on Send to the connection and keeps
// it alive with pings. It exits when Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Str("module", "ws.client").Str("conn", c.ID).Err(err).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorFrame(kind, message string) []byte {
	return mustFrame(models.EventError, "", models.ErrorPayload{Kind: kind, Message: message})
}

// mustFrame encodes an envelope. Payload types are all plain structs, so
// marshalling cannot fail.
func mustFrame(event, room string, payload any) []byte {
	env, err := models.NewEnvelope(event, room, payload)
	if err != nil {
		panic(err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	return data
}
