package memory

import (
	"context"
	"sync"

	"github.com/jamroom/jamroom/internal/models"
)

// ChatStore keeps per-room chat history in memory.
type ChatStore struct {
	mu      sync.RWMutex
	history map[string][]models.ChatEntry // room -> entries in arrival order
}

func NewChatStore() *ChatStore {
	return &ChatStore{
		history: make(map[string][]models.ChatEntry),
	}
}

func (s *ChatStore) AppendChat(_ context.Context, room string, entry models.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[room] = append(s.history[room], entry)
	return nil
}

func (s *ChatStore) ChatHistory(_ context.Context, room string) ([]models.ChatEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[room]
	out := make([]models.ChatEntry, len(entries))
	copy(out, entries)
	return out, nil
}
