package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/rs/zerolog/log"
)

// RoomStore manages the storage and retrieval of rooms in memory.
type RoomStore struct {
	mu    sync.RWMutex           // Guards rooms; every mutation holds the write lock
	rooms map[string]*models.Room // Rooms keyed by name
}

// NewRoomStore creates and returns a new, empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*models.Room),
	}
}

// CreateRoom creates a room owned by owner, with the owner as its only member.
func (s *RoomStore) CreateRoom(_ context.Context, name, owner string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; ok {
		return nil, fmt.Errorf("room %q: %w", name, storage.ErrAlreadyExists)
	}

	room := &models.Room{
		Name:    name,
		Owner:   owner,
		Members: []string{owner},
	}
	s.rooms[name] = room

	log.Info().Str("module", "storage.memory").Str("room", name).Str("owner", owner).Msg("room created")
	return copyRoom(room), nil
}

// GetRoom returns a copy of the named room.
func (s *RoomStore) GetRoom(_ context.Context, name string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[name]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", name, storage.ErrNotFound)
	}
	return copyRoom(room), nil
}

// RoomExists reports whether a room with the given name was created.
func (s *RoomStore) RoomExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[name]
	return ok, nil
}

// AppendMember adds username to the room. It returns false if the user
// had already joined.
func (s *RoomStore) AppendMember(_ context.Context, name, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[name]
	if !ok {
		return false, fmt.Errorf("room %q: %w", name, storage.ErrNotFound)
	}
	if room.HasMember(username) {
		log.Debug().Str("module", "storage.memory").Str("room", name).Str("user", username).Msg("already a member")
		return false, nil
	}

	room.Members = append(room.Members, username)
	log.Info().Str("module", "storage.memory").Str("room", name).Str("user", username).Int("members", len(room.Members)).Msg("member added")
	return true, nil
}

func copyRoom(r *models.Room) *models.Room {
	members := make([]string, len(r.Members))
	copy(members, r.Members)
	return &models.Room{Name: r.Name, Owner: r.Owner, Members: members}
}
