package ws

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/rooms"
	"github.com/rs/zerolog/log"
)

// Relay turns an event received from a joined client into the frame that
// is fanned out to its room. It runs on the hub goroutine, so events of a
// namespace are relayed one at a time in receipt order.
type Relay interface {
	Relay(ctx context.Context, from *Client, room string, env models.Envelope) (frame []byte, includeSender bool, err error)
}

// Namespace describes one isolated channel of the transport.
type Namespace struct {
	Name      string
	JoinEvent string
	SendEvent string
	Relay     Relay

	// ValidateJoin, when set, is consulted before a connection may join
	// a room. A nil ValidateJoin lets any room name be joined.
	ValidateJoin func(ctx context.Context, room string) error
}

type joinRequest struct {
	client *Client
	room   string
}

type inbound struct {
	client *Client
	env    models.Envelope
}

type delivery struct {
	client *Client
	frame  []byte
}

// Hub is the room membership registry and event relay of one namespace.
// A single goroutine (Run) owns all membership state.
type Hub struct {
	ns Namespace

	clients map[*Client]string              // client -> joined room, "" while only connected
	rooms   map[string]map[*Client]struct{} // room -> joined clients
	mu      sync.RWMutex                    // guards rooms for ActiveConnections

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	inbound    chan inbound
	deliver    chan delivery
	done       chan struct{}
}

func NewHub(ns Namespace) *Hub {
	return &Hub{
		ns:         ns,
		clients:    make(map[*Client]string),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		inbound:    make(chan inbound),
		deliver:    make(chan delivery),
		done:       make(chan struct{}),
	}
}

// Name returns the namespace name.
func (h *Hub) Name() string { return h.ns.Name }

// Run processes hub commands until ctx is cancelled. On exit every
// client's Send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	logger := log.With().Str("module", "ws.hub").Str("namespace", h.ns.Name).Logger()
	logger.Info().Msg("hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			logger.Info().Msg("hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = ""
			h.trySend(c, mustFrame(models.EventConnected, "", models.Connected{ID: c.ID}))
			logger.Debug().Str("conn", c.ID).Msg("connected")

		case c := <-h.unregister:
			if room, ok := h.clients[c]; ok {
				h.remove(c)
				logger.Debug().Str("conn", c.ID).Str("room", room).Msg("disconnected")
			}

		case req := <-h.join:
			h.joinRoom(req.client, req.room)

		case msg := <-h.inbound:
			h.relay(ctx, msg)

		case d := <-h.deliver:
			if _, ok := h.clients[d.client]; ok {
				h.trySend(d.client, d.frame)
			}
		}
	}
}

// Register adds a freshly connected client. It is sent a connected frame
// carrying its id.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes c from its room and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Join moves c into room, leaving any room it was in before.
func (h *Hub) Join(c *Client, room string) {
	select {
	case h.join <- joinRequest{client: c, room: room}:
	case <-h.done:
	}
}

// Broadcast queues an event from c for relay to c's room.
func (h *Hub) Broadcast(c *Client, env models.Envelope) {
	select {
	case h.inbound <- inbound{client: c, env: env}:
	case <-h.done:
	}
}

// Deliver queues a frame for c alone.
func (h *Hub) Deliver(c *Client, frame []byte) {
	select {
	case h.deliver <- delivery{client: c, frame: frame}:
	case <-h.done:
	}
}

// ActiveConnections returns how many connections are joined to room.
func (h *Hub) ActiveConnections(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// HandleEnvelope dispatches an envelope read from c. Join validation runs
// on the caller's goroutine so slow lookups never stall the hub.
func (h *Hub) HandleEnvelope(ctx context.Context, c *Client, env models.Envelope) {
	switch env.Event {
	case h.ns.JoinEvent:
		room := strings.TrimSpace(env.Room)
		if room == "" {
			h.Deliver(c, errorFrame(string(rooms.KindInvalidArgument), "room name is required"))
			return
		}
		if h.ns.ValidateJoin != nil {
			if err := h.ns.ValidateJoin(ctx, room); err != nil {
				kind, message := "Internal", "could not join room"
				var re *rooms.Error
				if errors.As(err, &re) {
					kind, message = string(re.Kind), re.Message
				} else {
					log.Error().Str("module", "ws.hub").Str("namespace", h.ns.Name).Str("room", room).Err(err).Msg("join validation failed")
				}
				h.Deliver(c, errorFrame(kind, message))
				return
			}
		}
		h.Join(c, room)

	case h.ns.SendEvent:
		h.Broadcast(c, env)

	default:
		h.Deliver(c, errorFrame("UnknownEvent", "unknown event "+env.Event))
	}
}

func (h *Hub) joinRoom(c *Client, room string) {
	prev, ok := h.clients[c]
	if !ok {
		return
	}

	h.mu.Lock()
	if prev != "" {
		h.leave(c, prev)
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()

	h.clients[c] = room
	log.Info().Str("module", "ws.hub").Str("namespace", h.ns.Name).Str("conn", c.ID).Str("room", room).Int("active", len(h.rooms[room])).Msg("joined room")
}

func (h *Hub) relay(ctx context.Context, msg inbound) {
	room, ok := h.clients[msg.client]
	if !ok {
		return
	}
	if room == "" {
		h.trySend(msg.client, errorFrame("NotJoined", "join a room before sending"))
		return
	}
	if msg.env.Room != "" && msg.env.Room != room {
		h.trySend(msg.client, errorFrame("NotJoined", "not joined to room "+msg.env.Room))
		return
	}

	frame, includeSender, err := h.ns.Relay.Relay(ctx, msg.client, room, msg.env)
	if err != nil {
		h.trySend(msg.client, errorFrame("BadRequest", err.Error()))
		return
	}

	var dropped []*Client
	for c := range h.rooms[room] {
		if c == msg.client && !includeSender {
			continue
		}
		select {
		case c.Send <- frame:
		default:
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		log.Warn().Str("module", "ws.hub").Str("namespace", h.ns.Name).Str("conn", c.ID).Str("room", room).Msg("send buffer full, dropping connection")
		h.remove(c)
	}
}

// trySend queues frame for c without blocking; a full buffer drops c.
func (h *Hub) trySend(c *Client, frame []byte) {
	select {
	case c.Send <- frame:
	default:
		log.Warn().Str("module", "ws.hub").Str("namespace", h.ns.Name).Str("conn", c.ID).Msg("send buffer full, dropping connection")
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	room, ok := h.clients[c]
	if !ok {
		return
	}
	if room != "" {
		h.mu.Lock()
		h.leave(c, room)
		h.mu.Unlock()
	}
	delete(h.clients, c)
	close(c.Send)
}

// leave must be called with mu held.
func (h *Hub) leave(c *Client, room string) {
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
