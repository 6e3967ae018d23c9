// Package rooms validates and performs room creation and joins.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/rs/zerolog/log"
)

// Service implements the room lifecycle over a RoomStore and the
// external user directory.
type Service struct {
	rooms storage.RoomStore
	users storage.UserDirectory
}

func NewService(rooms storage.RoomStore, users storage.UserDirectory) *Service {
	return &Service{rooms: rooms, users: users}
}

// CreateRoom creates a room named name owned by owner. Validation
// failures are returned as *Error.
func (s *Service) CreateRoom(ctx context.Context, name, owner string) (*models.Room, error) {
	name, owner = strings.TrimSpace(name), strings.TrimSpace(owner)
	if name == "" || owner == "" {
		return nil, newError(KindInvalidArgument, "Jam room name and owner username cannot be empty.")
	}

	exists, err := s.rooms.RoomExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check room %q: %w", name, err)
	}
	if exists {
		return nil, newError(KindAlreadyExists, "Jam room already exists.  Try again.")
	}

	ok, err := s.users.UsernameExists(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("lookup owner %q: %w", owner, err)
	}
	if !ok {
		return nil, newError(KindOwnerNotFound, "Owner username does not exist.  Try again.")
	}

	room, err := s.rooms.CreateRoom(ctx, name, owner)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Lost a race with another creator between the check and the write.
		return nil, newError(KindAlreadyExists, "Jam room already exists.  Try again.")
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("module", "rooms").Str("room", name).Str("owner", owner).Msg("jam room created")
	return room, nil
}

// JoinRoom adds joiner to the room's members and returns the updated room.
// Joining a room twice leaves the member list unchanged.
func (s *Service) JoinRoom(ctx context.Context, name, joiner string) (*models.Room, error) {
	name, joiner = strings.TrimSpace(name), strings.TrimSpace(joiner)
	if name == "" || joiner == "" {
		return nil, newError(KindInvalidArgument, "Jam room name and joiner username cannot be empty.")
	}

	exists, err := s.rooms.RoomExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check room %q: %w", name, err)
	}
	if !exists {
		return nil, newError(KindRoomNotFound, "Jam room does not exist.")
	}

	ok, err := s.users.UsernameExists(ctx, joiner)
	if err != nil {
		return nil, fmt.Errorf("lookup joiner %q: %w", joiner, err)
	}
	if !ok {
		return nil, newError(KindJoinerNotFound, "Joiner username does not exist.")
	}

	added, err := s.rooms.AppendMember(ctx, name, joiner)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(KindRoomNotFound, "Jam room does not exist.")
	}
	if err != nil {
		return nil, err
	}
	if added {
		log.Info().Str("module", "rooms").Str("room", name).Str("user", joiner).Msg("joined jam room")
	}

	return s.GetRoom(ctx, name)
}

// GetRoom returns the owner and members of a room.
func (s *Service) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(KindRoomNotFound, "Jam room does not exist.")
	}
	return room, err
}

// RoomExists reports whether name refers to a created room.
func (s *Service) RoomExists(ctx context.Context, name string) (bool, error) {
	return s.rooms.RoomExists(ctx, name)
}

// RequireRoom fails with KindRoomNotFound unless name was created. It is
// used to validate websocket joins.
func (s *Service) RequireRoom(ctx context.Context, name string) error {
	ok, err := s.rooms.RoomExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return newError(KindRoomNotFound, "Jam room %s does not exist.", name)
	}
	return nil
}
