package valkeystore

import (
	"context"
	"fmt"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// createRoomScript creates owner, member list and member set in one step.
// Returns 0 when the room already exists.
var createRoomScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('RPUSH', KEYS[2], ARGV[1])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// appendMemberScript returns -1 for a missing room, 0 when the user is
// already a member and 1 when the user was appended.
var appendMemberScript = valkey.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('SADD', KEYS[3], ARGV[1]) == 0 then
  return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// RoomStore implements storage.RoomStore using Valkey.
type RoomStore struct {
	client valkey.Client
}

func NewRoomStore(client valkey.Client) *RoomStore {
	return &RoomStore{client: client}
}

// CreateRoom creates the room atomically; a taken name yields
// storage.ErrAlreadyExists.
func (s *RoomStore) CreateRoom(ctx context.Context, name, owner string) (*models.Room, error) {
	keys := []string{ownerKey(name), membersKey(name), memberSetKey(name)}
	created, err := createRoomScript.Exec(ctx, s.client, keys, []string{owner}).AsInt64()
	if err != nil {
		return nil, fmt.Errorf("create room %q: %w", name, err)
	}
	if created == 0 {
		return nil, fmt.Errorf("room %q: %w", name, storage.ErrAlreadyExists)
	}

	log.Info().Str("module", "storage.valkey").Str("room", name).Str("owner", owner).Msg("room created")
	return &models.Room{Name: name, Owner: owner, Members: []string{owner}}, nil
}

// GetRoom reads the owner and member list of a room.
func (s *RoomStore) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	results := s.client.DoMulti(ctx,
		s.client.B().Get().Key(ownerKey(name)).Build(),
		s.client.B().Lrange().Key(membersKey(name)).Start(0).Stop(-1).Build(),
	)

	owner, err := results[0].ToString()
	if valkey.IsValkeyNil(err) {
		return nil, fmt.Errorf("room %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get room %q owner: %w", name, err)
	}
	members, err := results[1].AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("get room %q members: %w", name, err)
	}
	return &models.Room{Name: name, Owner: owner, Members: members}, nil
}

func (s *RoomStore) RoomExists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(ownerKey(name)).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("check room %q: %w", name, err)
	}
	return n == 1, nil
}

// AppendMember appends username to the room's member list unless it is
// already present.
func (s *RoomStore) AppendMember(ctx context.Context, name, username string) (bool, error) {
	keys := []string{ownerKey(name), membersKey(name), memberSetKey(name)}
	res, err := appendMemberScript.Exec(ctx, s.client, keys, []string{username}).AsInt64()
	if err != nil {
		return false, fmt.Errorf("join room %q: %w", name, err)
	}
	switch res {
	case -1:
		return false, fmt.Errorf("room %q: %w", name, storage.ErrNotFound)
	case 0:
		return false, nil
	}
	log.Info().Str("module", "storage.valkey").Str("room", name).Str("user", username).Msg("member added")
	return true, nil
}
