package usecase

import "github.com/paritygrid/parity-grid-backend/internal/entity"

// Outbound event types of the wire contract.
const (
	EventSessionCreated     = "SESSION_CREATED"
	EventRoomCreated        = "ROOM_CREATED"
	EventJoinSuccess        = "JOIN_SUCCESS"
	EventReconnectSuccess   = "RECONNECT_SUCCESS"
	EventGameStart          = "GAME_START"
	EventGameUpdate         = "GAME_UPDATE"
	EventGameOver           = "GAME_OVER"
	EventRematchRequested   = "REMATCH_REQUESTED"
	EventPlayerDisconnected = "PLAYER_DISCONNECTED"
	EventPlayerReconnected  = "PLAYER_RECONNECTED"
	EventOpponentLeftGame   = "OPPONENT_LEFT_GAME"
	EventError              = "ERROR"
)

type SessionCreatedPayload struct {
	SessionID string `json:"sessionId"`
}

type RoomCreatedPayload struct {
	RoomID      string              `json:"roomId"`
	Player      entity.Role         `json:"player"`
	Board       entity.Board        `json:"board"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type JoinSuccessPayload struct {
	RoomID      string              `json:"roomId"`
	Player      entity.Role         `json:"player"`
	Board       entity.Board        `json:"board"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type ReconnectSuccessPayload struct {
	RoomID      string              `json:"roomId"`
	Player      entity.Role         `json:"player"`
	Board       entity.Board        `json:"board"`
	Winner      entity.Role         `json:"winner"`
	WinningLine []int               `json:"winningLine"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type GameStartPayload struct {
	Board       entity.Board        `json:"board"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
	ClickCounts map[entity.Role]int `json:"clickCounts"`
}

type GameUpdatePayload struct {
	Board       entity.Board        `json:"board"`
	ClickCounts map[entity.Role]int `json:"clickCounts"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type GameOverPayload struct {
	Winner      entity.Role         `json:"winner"`
	WinningLine []int               `json:"winningLine"`
	Board       entity.Board        `json:"board"`
	ClickCounts map[entity.Role]int `json:"clickCounts"`
}

type RematchRequestedPayload struct {
	Player entity.Role `json:"player"`
}

type PlayersInfoPayload struct {
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type OpponentLeftPayload struct {
	Winner      entity.Role         `json:"winner"`
	Board       entity.Board        `json:"board"`
	ClickCounts map[entity.Role]int `json:"clickCounts"`
	PlayersInfo []entity.PlayerInfo `json:"playersInfo"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
