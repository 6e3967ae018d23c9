package rooms

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/rooms"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/rs/zerolog/log"
)

// ActiveCounter reports live websocket connections per room.
type ActiveCounter interface {
	ActiveConnections(room string) int
}

// RoomHandler holds the dependencies for handling room-related HTTP requests.
type RoomHandler struct {
	Rooms   *rooms.Service    // Room lifecycle with validation
	History storage.ChatStore // Chat history read on room entry
	Active  ActiveCounter     // Audio hub, for the live connection count
}

type roomResponse struct {
	Owner       string   `json:"owner"`
	Members     []string `json:"members"`
	ActiveUsers int      `json:"activeUsers"`
}

// CreateRoom handles POST /api/create_jam_room with jam_room_name and
// owner_username, as JSON or form values.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"jam_room_name"`
		Owner string `json:"owner_username"`
	}
	if err := decodeRequest(r, &req, map[string]*string{"jam_room_name": &req.Name, "owner_username": &req.Owner}); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(rooms.KindInvalidArgument, "Invalid request body"))
		log.Debug().Str("module", "api.rooms").Err(err).Msg("bad create request")
		return
	}

	room, err := h.Rooms.CreateRoom(r.Context(), req.Name, req.Owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"room":    toResponse(room, 0),
	})
}

// JoinRoom handles POST /api/join_jam_room with jam_room_name and
// joiner_username.
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"jam_room_name"`
		Joiner string `json:"joiner_username"`
	}
	if err := decodeRequest(r, &req, map[string]*string{"jam_room_name": &req.Name, "joiner_username": &req.Joiner}); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(rooms.KindInvalidArgument, "Invalid request body"))
		return
	}

	room, err := h.Rooms.JoinRoom(r.Context(), req.Name, req.Joiner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"room":    toResponse(room, h.active(room.Name)),
	})
}

// GetRoom handles GET /api/jam_room/{name}.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	room, err := h.Rooms.GetRoom(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(room, h.active(name)))
}

// ChatHistory handles GET /api/get_chat_history/{name}. A room without
// messages yields an empty list.
func (h *RoomHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	history, err := h.History.ChatHistory(r.Context(), name)
	if err != nil {
		log.Error().Str("module", "api.rooms").Str("room", name).Err(err).Msg("failed to read chat history")
		http.Error(w, "Failed to read chat history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.ChatEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chatHistory": history})
}

func (h *RoomHandler) active(room string) int {
	if h.Active == nil {
		return 0
	}
	return h.Active.ActiveConnections(room)
}

func (h *RoomHandler) writeError(w http.ResponseWriter, err error) {
	var re *rooms.Error
	if !errors.As(err, &re) {
		log.Error().Str("module", "api.rooms").Err(err).Msg("room request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusBadRequest
	switch re.Kind {
	case rooms.KindAlreadyExists:
		status = http.StatusConflict
	case rooms.KindRoomNotFound, rooms.KindOwnerNotFound, rooms.KindJoinerNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, failure(re.Kind, re.Message))
}

func failure(kind rooms.Kind, message string) map[string]any {
	return map[string]any{
		"success":      false,
		"kind":         kind,
		"errorMessage": message,
	}
}

func toResponse(room *models.Room, active int) roomResponse {
	return roomResponse{Owner: room.Owner, Members: room.Members, ActiveUsers: active}
}

// decodeRequest reads a JSON body, or falls back to form values for
// browsers posting regular forms.
func decodeRequest(r *http.Request, v any, formFields map[string]*string) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		for field, dst := range formFields {
			*dst = r.FormValue(field)
		}
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Str("module", "api.rooms").Err(err).Msg("failed to write response")
	}
}
