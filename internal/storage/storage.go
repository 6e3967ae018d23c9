// Package storage defines the persistence contracts for rooms, chat
// history and the user directory. Implementations live in the memory
// and valkey subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/jamroom/jamroom/internal/models"
)

var (
	// ErrNotFound is returned when a room does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a room whose name is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// RoomStore persists rooms and their member lists. CreateRoom and
// AppendMember must be atomic with respect to concurrent callers.
type RoomStore interface {
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	RoomExists(ctx context.Context, name string) (bool, error)
	CreateRoom(ctx context.Context, name, owner string) (*models.Room, error)
	// AppendMember adds username to the room's members. It reports false
	// when the user was already a member.
	AppendMember(ctx context.Context, name, username string) (bool, error)
}

// ChatStore is an append-only, ordered log of chat entries per room.
type ChatStore interface {
	// ChatHistory returns the room's entries in arrival order. It returns
	// an empty, non-nil slice when the room has no history.
	ChatHistory(ctx context.Context, room string) ([]models.ChatEntry, error)
	AppendChat(ctx context.Context, room string, entry models.ChatEntry) error
}

// UserDirectory resolves usernames managed outside this service.
type UserDirectory interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}
