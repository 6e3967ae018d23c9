package rooms

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jamroom/jamroom/internal/storage/memory"
)

func newTestService(users ...string) *Service {
	return NewService(memory.NewRoomStore(), memory.NewUserDirectory(users...))
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func TestCreateRoom(t *testing.T) {
	s := newTestService("alice")
	ctx := context.Background()

	tests := []struct {
		name, room, owner string
		want              Kind
	}{
		{"empty name", "", "alice", KindInvalidArgument},
		{"unknown owner", "JazzRoom", "nobody", KindOwnerNotFound},
		{"ok", "JazzRoom", "alice", ""},
		{"taken", "JazzRoom", "alice", KindAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateRoom(ctx, tt.room, tt.owner)
			if got := kindOf(err); got != tt.want {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestJoinRoom(t *testing.T) {
	s := newTestService("alice", "bob")
	ctx := context.Background()
	if _, err := s.CreateRoom(ctx, "JazzRoom", "alice"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if _, err := s.JoinRoom(ctx, "Nowhere", "bob"); kindOf(err) != KindRoomNotFound {
		t.Errorf("join missing room: %v", err)
	}
	if _, err := s.JoinRoom(ctx, "JazzRoom", "carol"); kindOf(err) != KindJoinerNotFound {
		t.Errorf("join unknown user: %v", err)
	}

	room, err := s.JoinRoom(ctx, "JazzRoom", "bob")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if fmt.Sprint(room.Members) != "[alice bob]" {
		t.Errorf("members = %v", room.Members)
	}

	room, _ = s.JoinRoom(ctx, "JazzRoom", "bob")
	if len(room.Members) != 2 {
		t.Errorf("repeated join changed members: %v", room.Members)
	}
}

func TestGetRoomScenario(t *testing.T) {
	s := newTestService("alice")
	ctx := context.Background()
	s.CreateRoom(ctx, "JazzRoom", "alice")

	room, err := s.GetRoom(ctx, "JazzRoom")
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if room.Owner != "alice" || fmt.Sprint(room.Members) != "[alice]" {
		t.Errorf("room = %+v", room)
	}

	_, err = s.GetRoom(ctx, "Missing")
	if !errors.Is(err, &Error{Kind: KindRoomNotFound}) {
		t.Errorf("GetRoom missing: %v", err)
	}
}

func TestRequireRoom(t *testing.T) {
	s := newTestService("alice")
	ctx := context.Background()

	if err := s.RequireRoom(ctx, "JazzRoom"); kindOf(err) != KindRoomNotFound {
		t.Errorf("before create: %v", err)
	}
	s.CreateRoom(ctx, "JazzRoom", "alice")
	if err := s.RequireRoom(ctx, "JazzRoom"); err != nil {
		t.Errorf("after create: %v", err)
	}
}
