package valkeystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/valkey-io/valkey-go"
)

// testClient connects to the server named by JAMROOM_TEST_VALKEY_ADDR.
// Tests are skipped when it is unset.
func testClient(t *testing.T) valkey.Client {
	t.Helper()
	addr := os.Getenv("JAMROOM_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("JAMROOM_TEST_VALKEY_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Open(ctx, Options{Addr: addr})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// roomName returns a name no other test run has used.
func roomName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func TestRoomLifecycle(t *testing.T) {
	client := testClient(t)
	s := NewRoomStore(client)
	ctx := context.Background()
	name := roomName("jazz")

	if _, err := s.GetRoom(ctx, name); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetRoom before create: got %v", err)
	}
	if _, err := s.CreateRoom(ctx, name, "alice"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := s.CreateRoom(ctx, name, "bob"); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate CreateRoom: got %v", err)
	}
	if added, err := s.AppendMember(ctx, name, "bob"); err != nil || !added {
		t.Fatalf("AppendMember: added=%v err=%v", added, err)
	}
	if added, _ := s.AppendMember(ctx, name, "bob"); added {
		t.Error("repeated AppendMember should report false")
	}

	room, err := s.GetRoom(ctx, name)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.Owner != "alice" || fmt.Sprint(room.Members) != "[alice bob]" {
		t.Errorf("unexpected room %+v", room)
	}

	if _, err := s.AppendMember(ctx, roomName("missing"), "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("AppendMember on missing room: got %v", err)
	}
}

func TestConcurrentChatAppends(t *testing.T) {
	client := testClient(t)
	s := NewChatStore(client)
	ctx := context.Background()
	room := roomName("chat")

	history, err := s.ChatHistory(ctx, room)
	if err != nil || history == nil || len(history) != 0 {
		t.Fatalf("empty history: %#v, %v", history, err)
	}

	const senders = 20
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendChat(ctx, room, models.ChatEntry{Sender: fmt.Sprintf("u%d", i), Message: "hi"})
		}(i)
	}
	wg.Wait()

	history, err = s.ChatHistory(ctx, room)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(history) != senders {
		t.Errorf("got %d entries, want %d", len(history), senders)
	}
}

func TestUserDirectory(t *testing.T) {
	client := testClient(t)
	d := NewUserDirectory(client)
	ctx := context.Background()
	user := roomName("user")

	if ok, err := d.UsernameExists(ctx, user); err != nil || ok {
		t.Fatalf("UsernameExists before seed: %v %v", ok, err)
	}
	if err := d.AddUsers(ctx, user); err != nil {
		t.Fatalf("AddUsers: %v", err)
	}
	if ok, _ := d.UsernameExists(ctx, user); !ok {
		t.Error("user should exist after AddUsers")
	}
}
