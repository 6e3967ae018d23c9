package valkeystore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/valkey-io/valkey-go"
)

// ChatStore keeps chat history in one Valkey list per room. RPUSH is
// atomic, so concurrent appends never overwrite each other.
type ChatStore struct {
	client valkey.Client
}

func NewChatStore(client valkey.Client) *ChatStore {
	return &ChatStore{client: client}
}

func (s *ChatStore) AppendChat(ctx context.Context, room string, entry models.ChatEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode chat entry: %w", err)
	}
	cmd := s.client.B().Rpush().Key(chatKey(room)).Element(string(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("append chat to %q: %w", room, err)
	}
	return nil
}

func (s *ChatStore) ChatHistory(ctx context.Context, room string) ([]models.ChatEntry, error) {
	raw, err := s.client.Do(ctx, s.client.B().Lrange().Key(chatKey(room)).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("read chat history of %q: %w", room, err)
	}

	entries := make([]models.ChatEntry, 0, len(raw))
	for i, item := range raw {
		var e models.ChatEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode chat entry %d of %q: %w", i, room, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
