package jamclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jamroom/jamroom/internal/config"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/server"
)

type played struct {
	instrument string
	slot       int
}

type fakePlayer struct {
	calls chan played
}

func newFakePlayer() *fakePlayer { return &fakePlayer{calls: make(chan played, 16)} }

func (p *fakePlayer) Play(instrument string, slot int) (float64, bool, error) {
	p.calls <- played{instrument, slot}
	return 0, true, nil
}

type lines struct {
	ch chan string
}

func newLines() *lines { return &lines{ch: make(chan string, 16)} }

func (l *lines) print(s string) { l.ch <- s }

func expectLine(t *testing.T, l *lines, want string) {
	t.Helper()
	select {
	case got := <-l.ch:
		if got != want {
			t.Errorf("line = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func expectPlay(t *testing.T, p *fakePlayer, want played) {
	t.Helper()
	select {
	case got := <-p.calls:
		if got != want {
			t.Errorf("played %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %+v", want)
	}
}

func expectNoPlay(t *testing.T, p *fakePlayer) {
	t.Helper()
	select {
	case got := <-p.calls:
		t.Errorf("unexpected play %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startServer(t *testing.T) (*httptest.Server, *server.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{Store: "memory", AssetsDir: t.TempDir(), AllowedOrigin: "*", Users: []string{"alice", "bob"}}
	stores, err := server.OpenStores(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(ctx, cfg, stores)
	srv.Run(ctx)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, srv
}

func startClient(t *testing.T, url, user string) (*Client, *fakePlayer, *lines) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	player, out := newFakePlayer(), newLines()
	c := New(Options{ServerURL: url, Room: "JazzRoom", Username: user}, player, out.print)
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	eventually(t, func() bool { return c.Connected("audio") && c.Connected("chat") })
	return c, player, out
}

func TestAudioRoundTrip(t *testing.T) {
	ts, srv := startServer(t)
	a, aPlayer, _ := startClient(t, ts.URL, "alice")
	_, bPlayer, _ := startClient(t, ts.URL, "bob")
	eventually(t, func() bool { return srv.AudioHub.ActiveConnections("JazzRoom") == 2 })

	if err := a.Play("bass", 3); err != nil {
		t.Fatal(err)
	}
	expectPlay(t, aPlayer, played{"bass", 3})
	expectPlay(t, bPlayer, played{"bass", 3})
	expectNoPlay(t, aPlayer)
}

func TestChatRoundTripAndHistory(t *testing.T) {
	ts, srv := startServer(t)
	a, _, aOut := startClient(t, ts.URL, "alice")
	_, _, bOut := startClient(t, ts.URL, "bob")
	eventually(t, func() bool { return srv.ChatHub.ActiveConnections("JazzRoom") == 2 })

	if err := a.Say("hello"); err != nil {
		t.Fatal(err)
	}
	expectLine(t, aOut, "alice: hello")
	expectLine(t, bOut, "alice: hello")

	history, err := API{BaseURL: ts.URL}.ChatHistory(context.Background(), "JazzRoom")
	if err != nil || len(history) != 1 || history[0].Render() != "alice: hello" {
		t.Errorf("history = %+v, %v", history, err)
	}
}

func TestSelfEchoAfterReconnect(t *testing.T) {
	player := newFakePlayer()
	c := New(Options{Room: "X"}, player, func(string) {})
	c.ids.Add("old-conn")
	c.ids.Add("new-conn")

	own, _ := models.NewEnvelope(models.EventPlayAudioMessage, "X", models.AudioTrigger{ID: "old-conn", Instrument: "lead", Slot: 1})
	c.handle(own)
	expectNoPlay(t, player)

	remote, _ := models.NewEnvelope(models.EventPlayAudioMessage, "X", models.AudioTrigger{ID: "peer", Instrument: "lead", Slot: 1})
	c.handle(remote)
	expectPlay(t, player, played{"lead", 1})
}

func TestSendWhileDisconnected(t *testing.T) {
	c := New(Options{Room: "X", Username: "alice"}, newFakePlayer(), func(string) {})
	if err := c.Say("hi"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Say = %v", err)
	}
}

func TestAPIErrors(t *testing.T) {
	ts, _ := startServer(t)
	api := API{BaseURL: ts.URL}
	ctx := context.Background()

	if err := api.CreateRoom(ctx, "JazzRoom", "alice"); err != nil {
		t.Fatal(err)
	}
	err := api.CreateRoom(ctx, "JazzRoom", "alice")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != "AlreadyExists" {
		t.Errorf("duplicate create = %v", err)
	}
	if err := api.JoinRoom(ctx, "JazzRoom", "bob"); err != nil {
		t.Errorf("join = %v", err)
	}

	m, err := api.Manifest(ctx)
	if err != nil || len(m.Instruments) == 0 {
		t.Errorf("manifest = %v, %v", m, err)
	}
}

func TestWebsocketURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:3000": "ws://localhost:3000/ws/audio",
		"https://jam.example/":  "wss://jam.example/ws/audio",
		"http://host/prefix":    "ws://host/prefix/ws/audio",
	}
	for in, want := range cases {
		if got, err := websocketURL(in, "/ws/audio"); err != nil || got != want {
			t.Errorf("websocketURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := websocketURL("ftp://x", "/ws/audio"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestNextBackoff(t *testing.T) {
	b := nextBackoff(0, false)
	if b != minBackoff {
		t.Fatalf("first backoff = %v, want %v", b, minBackoff)
	}
	for i := 0; i < 10; i++ {
		b = nextBackoff(b, false)
	}
	if b != maxBackoff {
		t.Fatalf("after repeated dial failures backoff = %v, want %v", b, maxBackoff)
	}
	if got := nextBackoff(b, true); got != minBackoff {
		t.Errorf("after a joined session backoff = %v, want %v", got, minBackoff)
	}
	if got := nextBackoff(minBackoff, false); got != 2*minBackoff {
		t.Errorf("nextBackoff(%v) = %v", minBackoff, got)
	}
}
