package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jamroom/jamroom/internal/config"
	"github.com/jamroom/jamroom/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Store:         "memory",
		AssetsDir:     t.TempDir(),
		AllowedOrigin: "*",
		RequireRoom:   true,
		Users:         []string{"alice", "bob"},
	}
	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	srv := New(ctx, cfg, stores)
	srv.Run(ctx)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v %v", resp, err)
	}
}

func TestPreflightReachesCORS(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/create_jam_room", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight: %d %v", resp.StatusCode, resp.Header)
	}
}

func TestJoinUnknownRoomRejected(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/audio"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var env models.Envelope
	conn.ReadJSON(&env) // connected
	conn.WriteJSON(models.Envelope{Event: models.EventJoinAudioRoom, Room: "Nowhere"})
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	var payload models.ErrorPayload
	env.Decode(&payload)
	if env.Event != models.EventError || payload.Kind != "RoomNotFound" {
		t.Errorf("got %+v %+v", env, payload)
	}
}

func TestRoomLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/create_jam_room", map[string]string{"jam_room_name": "JazzRoom", "owner_username": "alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+"/api/join_jam_room", map[string]string{"jam_room_name": "JazzRoom", "joiner_username": "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: %d", resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/api/jam_room/JazzRoom")
	if err != nil {
		t.Fatal(err)
	}
	var room struct {
		Owner   string   `json:"owner"`
		Members []string `json:"members"`
	}
	json.NewDecoder(resp.Body).Decode(&room)
	if room.Owner != "alice" || len(room.Members) != 2 {
		t.Errorf("room = %+v", room)
	}

	resp, _ = http.Get(ts.URL + "/api/get_chat_history/JazzRoom")
	var history struct {
		ChatHistory []models.ChatEntry `json:"chatHistory"`
	}
	json.NewDecoder(resp.Body).Decode(&history)
	if history.ChatHistory == nil || len(history.ChatHistory) != 0 {
		t.Errorf("history = %+v", history)
	}
}
