package rooms

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoomRoutes registers the jam room HTTP API on router.
func RegisterRoomRoutes(router *mux.Router, handler *RoomHandler) {
	router.HandleFunc("/api/create_jam_room", handler.CreateRoom).Methods(http.MethodPost)
	router.HandleFunc("/api/join_jam_room", handler.JoinRoom).Methods(http.MethodPost)
	router.HandleFunc("/api/jam_room/{name}", handler.GetRoom).Methods(http.MethodGet)
	router.HandleFunc("/api/get_chat_history/{name}", handler.ChatHistory).Methods(http.MethodGet)
}
