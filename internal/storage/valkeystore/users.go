package valkeystore

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// UserDirectory resolves usernames against the jamroom:users set, which
// the account service maintains.
type UserDirectory struct {
	client valkey.Client
}

func NewUserDirectory(client valkey.Client) *UserDirectory {
	return &UserDirectory{client: client}
}

func (d *UserDirectory) UsernameExists(ctx context.Context, username string) (bool, error) {
	ok, err := d.client.Do(ctx, d.client.B().Sismember().Key(usersKey).Member(username).Build()).AsBool()
	if err != nil {
		return false, fmt.Errorf("lookup user %q: %w", username, err)
	}
	return ok, nil
}

// AddUsers seeds the directory, mostly for development setups.
func (d *UserDirectory) AddUsers(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	cmd := d.client.B().Sadd().Key(usersKey).Member(usernames...).Build()
	if err := d.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	return nil
}
