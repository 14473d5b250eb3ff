package websocket

import (
	"encoding/json"
	"fmt"
)

// Inbound actions.
const (
	actionJoinRoom      = "join-room"
	actionPlayerReady   = "player-ready"
	actionPlayerUnready = "player-unready"
	actionPlayerChoice  = "player-choice"
	actionSendEmoji     = "send-emoji"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type choicePayload struct {
	RoomID string          `json:"roomId"`
	Choice json.RawMessage `json:"choice"`
}

type emojiPayload struct {
	RoomID string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

// symbol - the choice when it was sent as a string, nil for null, a missing field or any other type.
func (that *choicePayload) symbol() *string {
	if len(that.Choice) == 0 || string(that.Choice) == "null" {
		return nil
	}

	var choice string
	if err := json.Unmarshal(that.Choice, &choice); err != nil {
		return nil
	}

	return &choice
}

func encodeMessage(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func decodePayload(msg *Message, dst any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: payload is missing", msg.Action)
	}

	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
