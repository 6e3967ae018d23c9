package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamroom/jamroom/internal/models"
	"github.com/jamroom/jamroom/internal/storage"
	"github.com/rs/zerolog/log"
)

const persistTimeout = 5 * time.Second

// AudioRelay forwards audio triggers to the other members of a room,
// stamped with the sender's connection id.
type AudioRelay struct{}

func (AudioRelay) Relay(_ context.Context, from *Client, room string, env models.Envelope) ([]byte, bool, error) {
	var trigger models.AudioTrigger
	if err := env.Decode(&trigger); err != nil {
		return nil, false, fmt.Errorf("invalid audio payload: %w", err)
	}
	if trigger.Instrument == "" {
		return nil, false, errors.New("instrument is required")
	}
	if trigger.Slot < 0 {
		return nil, false, fmt.Errorf("invalid slot %d", trigger.Slot)
	}
	trigger.ID = from.ID
	return mustFrame(models.EventPlayAudioMessage, room, trigger), false, nil
}

// ChatRelay appends chat messages to the room's history and then sends
// the rendered line to every member, sender included. Because the hub
// relays one event at a time, history order always matches delivery order.
type ChatRelay struct {
	Store storage.ChatStore
}

func (r ChatRelay) Relay(ctx context.Context, from *Client, room string, env models.Envelope) ([]byte, bool, error) {
	var msg models.ChatSend
	if err := env.Decode(&msg); err != nil {
		return nil, false, fmt.Errorf("invalid chat payload: %w", err)
	}
	msg.Username = strings.TrimSpace(msg.Username)
	if msg.Username == "" {
		return nil, false, errors.New("username is required")
	}

	entry := models.ChatEntry{Sender: msg.Username, Message: msg.Message}
	if r.Store != nil {
		ctx, cancel := context.WithTimeout(ctx, persistTimeout)
		defer cancel()
		if err := r.Store.AppendChat(ctx, room, entry); err != nil {
			// The message is still relayed; only the history misses it.
			log.Error().Str("module", "ws.chat").Str("room", room).Str("conn", from.ID).Err(err).Msg("failed to persist chat message")
		}
	}
	return mustFrame(models.EventChatMessage, room, models.ChatText{Text: entry.Render()}), true, nil
}

// AudioNamespace returns the audio namespace definition.
func AudioNamespace(validate func(context.Context, string) error) Namespace {
	return Namespace{
		Name:         "audio",
		JoinEvent:    models.EventJoinAudioRoom,
		SendEvent:    models.EventSendAudioMessage,
		Relay:        AudioRelay{},
		ValidateJoin: validate,
	}
}

// ChatNamespace returns the chat namespace definition backed by store.
func ChatNamespace(store storage.ChatStore, validate func(context.Context, string) error) Namespace {
	return Namespace{
		Name:         "chat",
		JoinEvent:    models.EventJoinChatRoom,
		SendEvent:    models.EventChatMessage,
		Relay:        ChatRelay{Store: store},
		ValidateJoin: validate,
	}
}
