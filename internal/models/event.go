package models

import "encoding/json"

// Event names carried over the audio and chat websocket namespaces.
const (
	EventConnected        = "connected"
	EventError            = "error"
	EventJoinAudioRoom    = "joinAudioRoom"
	EventSendAudioMessage = "sendAudioMessage"
	EventPlayAudioMessage = "playAudioMessage"
	EventJoinChatRoom     = "joinChatRoom"
	EventChatMessage      = "chatMessage"
)

// Envelope is the frame exchanged on every websocket connection.
// Payload is decoded according to Event.
type Envelope struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connected is sent to a client right after the upgrade so it learns the
// identifier the server uses for its connection.
type Connected struct {
	ID string `json:"id"`
}

// AudioTrigger is the instrument/slot pair a client asks peers to play.
// ID is filled in by the server with the sender's connection id.
type AudioTrigger struct {
	ID         string `json:"id,omitempty"`
	Instrument string `json:"instrument"`
	Slot       int    `json:"slot"`
}

// ChatSend is the client->server chat payload.
type ChatSend struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ChatText is the server->client chat payload, already rendered.
type ChatText struct {
	Text string `json:"text"`
}

// ErrorPayload reports a rejected request on a websocket connection.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewEnvelope marshals payload into an Envelope for event.
func NewEnvelope(event, room string, payload any) (Envelope, error) {
	env := Envelope{Event: event, Room: room}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	env.Payload = raw
	return env, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(e.Payload, v)
}
