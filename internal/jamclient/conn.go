package jamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jamroom/jamroom/internal/models"
)

const writeWait = 10 * time.Second

// Conn is one websocket connection to a relay namespace.
type Conn struct {
	ID string // Connection id assigned by the server

	ws *websocket.Conn
	mu sync.Mutex // serializes writes
}

// Dial connects to url and waits for the server's connected frame.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	ws.SetReadDeadline(time.Now().Add(writeWait))
	var env models.Envelope
	if err := ws.ReadJSON(&env); err != nil {
		ws.Close()
		return nil, fmt.Errorf("read connected frame: %w", err)
	}
	ws.SetReadDeadline(time.Time{})

	var hello models.Connected
	if env.Event != models.EventConnected || env.Decode(&hello) != nil || hello.ID == "" {
		ws.Close()
		return nil, fmt.Errorf("unexpected first frame %q", env.Event)
	}
	return &Conn{ID: hello.ID, ws: ws}, nil
}

// Send writes an envelope.
func (c *Conn) Send(event, room string, payload any) error {
	env, err := models.NewEnvelope(event, room, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Read blocks for the next envelope.
func (c *Conn) Read() (models.Envelope, error) {
	var env models.Envelope
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("malformed frame: %w", err)
	}
	return env, nil
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.ws.Close()
}
