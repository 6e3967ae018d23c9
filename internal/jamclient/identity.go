package jamclient

import "sync"

// IdentitySet remembers every connection id this session has been
// assigned. A reconnect yields a new id, and frames stamped with any of
// the old ones are still our own.
type IdentitySet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewIdentitySet() *IdentitySet {
	return &IdentitySet{ids: make(map[string]struct{})}
}

func (s *IdentitySet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *IdentitySet) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}
