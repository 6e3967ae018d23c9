package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage/memory"
	"github.com/jamroom/jamroom/internal/ws"
)

func newTestServer(t *testing.T, origin string) (*httptest.Server, *memory.ChatStore) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	chat := memory.NewChatStore()
	audioHub := ws.NewHub(ws.AudioNamespace(nil))
	chatHub := ws.NewHub(ws.ChatNamespace(chat, nil))
	go audioHub.Run(ctx)
	go chatHub.Run(ctx)

	router := mux.NewRouter()
	RegisterRelayRoutes(router, NewRelayHandler(ctx, audioHub, chatHub, origin))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, chat
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })

	env := read(t, conn)
	var hello models.Connected
	if env.Event != models.EventConnected || env.Decode(&hello) != nil || hello.ID == "" {
		t.Fatalf("first frame = %+v", env)
	}
	return conn, hello.ID
}

func read(t *testing.T, conn *websocket.Conn) models.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env models.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func send(t *testing.T, conn *websocket.Conn, event, room string, payload any) {
	t.Helper()
	env, err := models.NewEnvelope(event, room, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// joined sends a join and waits until the hub has processed it, using an
// invalid send as a barrier.
func joined(t *testing.T, conn *websocket.Conn, event, sendEvent, room string) {
	t.Helper()
	send(t, conn, event, room, nil)
	send(t, conn, sendEvent, room, map[string]any{})
	if env := read(t, conn); env.Event != models.EventError {
		t.Fatalf("barrier frame = %+v", env)
	}
}

func TestAudioOverWebsocket(t *testing.T) {
	srv, _ := newTestServer(t, "*")
	a, aID := dial(t, srv, "/ws/audio")
	b, _ := dial(t, srv, "/ws/audio")
	joined(t, a, models.EventJoinAudioRoom, models.EventSendAudioMessage, "X")
	joined(t, b, models.EventJoinAudioRoom, models.EventSendAudioMessage, "X")

	send(t, a, models.EventSendAudioMessage, "X", models.AudioTrigger{Instrument: "pluck", Slot: 5})

	env := read(t, b)
	var trigger models.AudioTrigger
	env.Decode(&trigger)
	if env.Event != models.EventPlayAudioMessage || trigger.ID != aID || trigger.Slot != 5 {
		t.Errorf("b got %+v %+v", env, trigger)
	}
}

func TestChatOverWebsocket(t *testing.T) {
	srv, store := newTestServer(t, "*")
	a, _ := dial(t, srv, "/ws/chat")
	joined(t, a, models.EventJoinChatRoom, models.EventChatMessage, "JazzRoom")

	send(t, a, models.EventChatMessage, "JazzRoom", models.ChatSend{Username: "alice", Message: "hi"})
	var text models.ChatText
	read(t, a).Decode(&text)
	if text.Text != "alice: hi" {
		t.Errorf("echo = %q", text.Text)
	}
	history, _ := store.ChatHistory(context.Background(), "JazzRoom")
	if len(history) != 1 {
		t.Errorf("history = %+v", history)
	}
}

func TestMalformedFrame(t *testing.T) {
	srv, _ := newTestServer(t, "*")
	a, _ := dial(t, srv, "/ws/audio")
	a.WriteMessage(websocket.TextMessage, []byte("{not json"))
	if env := read(t, a); env.Event != models.EventError {
		t.Errorf("got %+v", env)
	}
}

func TestOriginRejected(t *testing.T) {
	srv, _ := newTestServer(t, "http://jam.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/audio"

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial from foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("resp = %+v", resp)
	}

	header.Set("Origin", "http://jam.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	conn.Close()
}
