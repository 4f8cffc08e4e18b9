package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paritygrid/parity-grid-backend/internal/entity"
)

func TestDecodeMessage(t *testing.T) {
	t.Run("Canonical envelope keeps the payload as-is", func(t *testing.T) {
		// Given: a message with the nested payload form
		data := []byte(`{"type":"JOIN_ROOM","payload":{"playerName":"Bob","roomId":"abc123"}}`)

		// When: decoded
		message, err := decodeMessage(data)

		// Then: the payload unmarshals into the request struct
		require.NoError(t, err)
		assert.Equal(t, "JOIN_ROOM", message.Type)

		var payload JoinRoomPayload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))
		assert.Equal(t, "Bob", payload.PlayerName)
		assert.Equal(t, "abc123", payload.RoomID)
	})

	t.Run("Legacy flat fields are folded back into the payload", func(t *testing.T) {
		// Given: a message with fields at the top level
		data := []byte(`{"type":"CREATE_ROOM","playerName":"Alice","preferredRole":"EVEN"}`)

		// When: decoded
		message, err := decodeMessage(data)

		// Then: the whole message doubles as the payload
		require.NoError(t, err)
		assert.Equal(t, "CREATE_ROOM", message.Type)

		var payload CreateRoomPayload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))
		assert.Equal(t, "Alice", payload.PlayerName)
		assert.Equal(t, entity.RoleEven, payload.PreferredRole)
	})

	t.Run("Increment carries the square index", func(t *testing.T) {
		data := []byte(`{"type":"INCREMENT","payload":{"square":17}}`)

		message, err := decodeMessage(data)

		require.NoError(t, err)

		var payload IncrementPayload
		require.NoError(t, json.Unmarshal(message.Payload, &payload))
		assert.Equal(t, 17, payload.Square)
	})

	t.Run("Malformed JSON is rejected", func(t *testing.T) {
		_, err := decodeMessage([]byte(`{"type":`))

		require.Error(t, err)
	})
}
