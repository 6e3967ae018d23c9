// Package jamclient is the participant side of a jam room: it keeps the
// audio and chat connections of one user, plays remote triggers on the
// local voices and renders chat lines.
package jamclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jamroom/jamroom/internal/audio"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// ErrNotConnected is returned when sending while a namespace is down.
var ErrNotConnected = errors.New("jamclient: not connected")

// Player plays an instrument slot on the local voices. *audio.Session
// implements it.
type Player interface {
	Play(instrument string, slot int) (float64, bool, error)
}

// Options identify the user and room.
type Options struct {
	ServerURL string // http(s)://host:port
	Room      string
	Username  string
}

// Client is a participant connected to one room on both namespaces.
type Client struct {
	opts   Options
	player Player
	print  func(string)
	ids    *IdentitySet

	mu   sync.Mutex
	conn map[string]*Conn // namespace -> live connection
}

// New returns a client playing remote triggers on player and writing
// chat lines and notices to print.
func New(opts Options, player Player, printLine func(string)) *Client {
	return &Client{
		opts:   opts,
		player: player,
		print:  printLine,
		ids:    NewIdentitySet(),
		conn:   make(map[string]*Conn),
	}
}

// Run keeps both namespaces connected and joined until ctx is done. A
// dropped connection is redialled with backoff and rejoined; chat
// messages missed in between are not recovered.
func (c *Client) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ns := range []string{"audio", "chat"} {
		wg.Add(1)
		go func(ns string) {
			defer wg.Done()
			c.maintain(ctx, ns)
		}(ns)
	}
	wg.Wait()
}

// Connected reports whether namespace ns is currently joined.
func (c *Client) Connected(ns string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn[ns] != nil
}

// Play triggers slot locally and asks the room to play it too.
func (c *Client) Play(instrument string, slot int) error {
	if _, _, err := c.player.Play(instrument, slot); err != nil {
		return err
	}
	return c.send("audio", models.EventSendAudioMessage, models.AudioTrigger{Instrument: instrument, Slot: slot})
}

// Repeat plays slot count times, once per audio.TriggerInterval, the way
// a held pad retriggers.
func (c *Client) Repeat(ctx context.Context, instrument string, slot, count int) error {
	ticker := time.NewTicker(time.Duration(audio.TriggerInterval * float64(time.Second)))
	defer ticker.Stop()
	for i := 0; i < count; i++ {
		if err := c.Play(instrument, slot); err != nil {
			return err
		}
		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Say sends a chat message as the configured user.
func (c *Client) Say(message string) error {
	return c.send("chat", models.EventChatMessage, models.ChatSend{Username: c.opts.Username, Message: message})
}

func (c *Client) send(ns, event string, payload any) error {
	c.mu.Lock()
	conn := c.conn[ns]
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%s: %w", ns, ErrNotConnected)
	}
	return conn.Send(event, c.opts.Room, payload)
}

func (c *Client) maintain(ctx context.Context, ns string) {
	logger := log.With().Str("module", "jamclient").Str("namespace", ns).Logger()
	var backoff time.Duration
	for {
		joined, err := c.session(ctx, ns)
		if ctx.Err() != nil {
			return
		}
		backoff = nextBackoff(backoff, joined)
		logger.Warn().Err(err).Dur("retry_in", backoff).Msg("connection lost")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// nextBackoff returns the wait before the next dial. A connection that
// got as far as joining starts the sequence over.
func nextBackoff(prev time.Duration, joined bool) time.Duration {
	if joined || prev == 0 {
		return minBackoff
	}
	return min(prev*2, maxBackoff)
}

// session runs one connection of namespace ns until it fails, reporting
// whether the room was joined.
func (c *Client) session(ctx context.Context, ns string) (bool, error) {
	wsURL, err := websocketURL(c.opts.ServerURL, "/ws/"+ns)
	if err != nil {
		return false, err
	}
	conn, err := Dial(ctx, wsURL)
	if err != nil {
		return false, err
	}
	c.ids.Add(conn.ID)

	join := models.EventJoinAudioRoom
	if ns == "chat" {
		join = models.EventJoinChatRoom
	}
	if err := conn.Send(join, c.opts.Room, nil); err != nil {
		conn.Close()
		return false, err
	}

	c.mu.Lock()
	c.conn[ns] = conn
	c.mu.Unlock()
	log.Info().Str("module", "jamclient").Str("namespace", ns).Str("conn", conn.ID).Str("room", c.opts.Room).Msg("joined")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		c.mu.Lock()
		if c.conn[ns] == conn {
			delete(c.conn, ns)
		}
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		env, err := conn.Read()
		if err != nil {
			return true, err
		}
		c.handle(env)
	}
}

func (c *Client) handle(env models.Envelope) {
	switch env.Event {
	case models.EventPlayAudioMessage:
		c.handleAudio(env)
	case models.EventChatMessage:
		var text models.ChatText
		if err := env.Decode(&text); err == nil {
			c.print(text.Text)
		}
	case models.EventError:
		var e models.ErrorPayload
		env.Decode(&e)
		c.print(fmt.Sprintf("server error: %s: %s", e.Kind, e.Message))
	}
}

// handleAudio plays a remote trigger with this client's own gain and pan.
// Triggers stamped with any of our ids are our own and are ignored.
func (c *Client) handleAudio(env models.Envelope) {
	var trigger models.AudioTrigger
	if err := env.Decode(&trigger); err != nil {
		log.Debug().Str("module", "jamclient").Err(err).Msg("bad audio payload")
		return
	}
	if c.ids.Has(trigger.ID) {
		return
	}
	if _, ok, err := c.player.Play(trigger.Instrument, trigger.Slot); err != nil || !ok {
		log.Debug().Str("module", "jamclient").Str("instrument", trigger.Instrument).Int("slot", trigger.Slot).Err(err).Msg("remote trigger not played")
	}
}

// websocketURL turns the server's http(s) base URL into a ws(s) URL for path.
func websocketURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
