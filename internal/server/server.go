// Package server assembles the jam room HTTP and websocket server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jamroom/jamroom/internal/api/assets"
	"github.com/jamroom/jamroom/internal/api/relay"
	roomsapi "github.com/jamroom/jamroom/internal/api/rooms"
	"github.com/jamroom/jamroom/internal/config"
	"github.com/jamroom/jamroom/internal/middleware"
	"github.com/jamroom/jamroom/internal/rooms"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/jamroom/jamroom/internal/storage/memory"
	"github.com/jamroom/jamroom/internal/storage/valkeystore"
	"github.com/jamroom/jamroom/internal/ws"
	"github.com/rs/zerolog/log"
)

// Stores bundles the persistence backends.
type Stores struct {
	Rooms storage.RoomStore
	Chat  storage.ChatStore
	Users storage.UserDirectory

	close func()
}

// Close releases the backend connection, if any.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores opens the backend selected by cfg.Store and seeds cfg.Users
// into its user directory.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store {
	case "valkey":
		client, err := valkeystore.Open(ctx, valkeystore.Options{
			Addr:     cfg.ValkeyAddr,
			Password: cfg.ValkeyPassword,
			DB:       cfg.ValkeyDB,
		})
		if err != nil {
			return nil, err
		}
		users := valkeystore.NewUserDirectory(client)
		if err := users.AddUsers(ctx, cfg.Users...); err != nil {
			client.Close()
			return nil, fmt.Errorf("seed users: %w", err)
		}
		log.Info().Str("module", "server").Str("addr", cfg.ValkeyAddr).Int("seeded_users", len(cfg.Users)).Msg("using valkey store")
		return &Stores{
			Rooms: valkeystore.NewRoomStore(client),
			Chat:  valkeystore.NewChatStore(client),
			Users: users,
			close: client.Close,
		}, nil

	default:
		log.Info().Str("module", "server").Int("seeded_users", len(cfg.Users)).Msg("using in-memory store")
		return &Stores{
			Rooms: memory.NewRoomStore(),
			Chat:  memory.NewChatStore(),
			Users: memory.NewUserDirectory(cfg.Users...),
		}, nil
	}
}

// Server owns the two namespace hubs and the HTTP router.
type Server struct {
	AudioHub *ws.Hub
	ChatHub  *ws.Hub
	Handler  http.Handler
}

// New wires the hubs, API handlers and middleware. The hubs are not
// started; call Run.
func New(ctx context.Context, cfg *config.Config, stores *Stores) *Server {
	service := rooms.NewService(stores.Rooms, stores.Users)

	var validate func(context.Context, string) error
	if cfg.RequireRoom {
		validate = service.RequireRoom
	}
	audioHub := ws.NewHub(ws.AudioNamespace(validate))
	chatHub := ws.NewHub(ws.ChatNamespace(stores.Chat, validate))

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	roomsapi.RegisterRoomRoutes(router, &roomsapi.RoomHandler{
		Rooms:   service,
		History: stores.Chat,
		Active:  audioHub,
	})
	relay.RegisterRelayRoutes(router, relay.NewRelayHandler(ctx, audioHub, chatHub, cfg.AllowedOrigin))
	assets.RegisterAssetRoutes(router, &assets.AssetHandler{Dir: cfg.AssetsDir})

	// Wrapped outside the router so preflights reach CORS before method
	// matching rejects them.
	handler := middleware.RequestLogger(middleware.CORS(cfg.AllowedOrigin)(router))
	return &Server{AudioHub: audioHub, ChatHub: chatHub, Handler: handler}
}

// Run starts both hubs; they stop when ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.AudioHub.Run(ctx)
	go s.ChatHub.Run(ctx)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
