package memory

import (
	"context"
	"sync"
)

// UserDirectory is a fixed set of known usernames. Signup lives in a
// separate service; this directory is seeded from configuration.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func NewUserDirectory(usernames ...string) *UserDirectory {
	d := &UserDirectory{users: make(map[string]struct{})}
	for _, u := range usernames {
		d.users[u] = struct{}{}
	}
	return d
}

// Add registers username.
func (d *UserDirectory) Add(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = struct{}{}
}

func (d *UserDirectory) UsernameExists(_ context.Context, username string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[username]
	return ok, nil
}
