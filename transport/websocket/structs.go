package websocket

import (
	"encoding/json"

	"github.com/paritygrid/parity-grid-backend/internal/entity"
)

// Message represents an inbound WebSocket message with a type and a payload.
// The canonical form wraps all fields in payload; a legacy dialect puts them
// flat on the message, which decodeMessage folds back into Payload.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope represents an outbound event.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type CreateRoomPayload struct {
	PlayerName    string      `json:"playerName"`
	PreferredRole entity.Role `json:"preferredRole,omitempty"`
}

type JoinRoomPayload struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId"`
}

type IncrementPayload struct {
	Square int `json:"square"`
}

type ReconnectPayload struct {
	SessionID string `json:"sessionId"`
}

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool
	opCode  byte
	length  uint64
	payload []byte
}

// decodeMessage - parses an inbound message, accepting both the canonical
// {type, payload} form and the legacy flat dialect.
func decodeMessage(data []byte) (*Message, error) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, err
	}

	if len(message.Payload) == 0 {
		message.Payload = json.RawMessage(data)
	}

	return &message, nil
}
