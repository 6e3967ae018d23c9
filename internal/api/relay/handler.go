package relay

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jamroom/jamroom/internal/ws"
	"github.com/rs/zerolog/log"
)

// RelayHandler upgrades HTTP requests to websocket connections on the
// audio and chat namespaces.
type RelayHandler struct {
	Audio *ws.Hub
	Chat  *ws.Hub

	// BaseContext bounds the lifetime of every connection; cancelling it
	// stops the pumps. Request contexts end when the upgrade returns, so
	// they cannot be used here.
	BaseContext context.Context

	upgrader websocket.Upgrader
}

// NewRelayHandler returns a handler accepting websocket upgrades from
// allowedOrigin ("*" accepts any origin).
func NewRelayHandler(ctx context.Context, audio, chat *ws.Hub, allowedOrigin string) *RelayHandler {
	return &RelayHandler{
		Audio:       audio,
		Chat:        chat,
		BaseContext: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

func (h *RelayHandler) ServeAudioWS(w http.ResponseWriter, r *http.Request) {
	h.serve(h.Audio, w, r)
}

func (h *RelayHandler) ServeChatWS(w http.ResponseWriter, r *http.Request) {
	h.serve(h.Chat, w, r)
}

func (h *RelayHandler) serve(hub *ws.Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		log.Warn().Str("module", "api.relay").Str("namespace", hub.Name()).Str("remote", r.RemoteAddr).Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(hub, conn)
	log.Debug().Str("module", "api.relay").Str("namespace", hub.Name()).Str("conn", client.ID).Str("remote", r.RemoteAddr).Msg("websocket connected")

	// Start the writer before registering so the connected frame is
	// flushed as soon as the hub queues it.
	go client.WritePump()
	hub.Register(client)
	go client.ReadPump(h.BaseContext)
}

func originChecker(allowed string) func(*http.Request) bool {
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}
