package relay

import "github.com/gorilla/mux"

// RegisterRelayRoutes registers the websocket endpoints of both namespaces.
func RegisterRelayRoutes(router *mux.Router, handler *RelayHandler) {
	router.HandleFunc("/ws/audio", handler.ServeAudioWS)
	router.HandleFunc("/ws/chat", handler.ServeChatWS)
}
