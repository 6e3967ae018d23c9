// Package valkeystore implements the storage contracts on top of Valkey.
//
// Every room lives under keys sharing the hash tag {room name}, so the
// scripts that touch several keys of one room stay on a single slot:
//
//	jamroom:{name}:owner       string, set once with the owner username
//	jamroom:{name}:members     list, usernames in join order
//	jamroom:{name}:memberset   set, used to make joins idempotent
//	jamroom:{name}:chat        list, JSON encoded chat entries
//	jamroom:users              set, known usernames
package valkeystore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
)

// Options configures the connection to Valkey.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Valkey and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", opts.Addr, err)
	}

	log.Info().Str("module", "storage.valkey").Str("addr", opts.Addr).Msg("connected to valkey")
	return client, nil
}

func ownerKey(room string) string     { return "jamroom:{" + room + "}:owner" }
func membersKey(room string) string   { return "jamroom:{" + room + "}:members" }
func memberSetKey(room string) string { return "jamroom:{" + room + "}:memberset" }
func chatKey(room string) string      { return "jamroom:{" + room + "}:chat" }

const usersKey = "jamroom:users"
