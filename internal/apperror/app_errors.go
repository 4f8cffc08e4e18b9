package apperror

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is already full")
	ErrUnknownSession = errors.New("unknown session")
	ErrOutOfRange     = errors.New("square index is out of range")
	ErrGameNotActive  = errors.New("game is not active")
	ErrGameNotOver    = errors.New("game is not over")
	ErrNotInRoom      = errors.New("player is not in a room")
	ErrAlreadyInRoom  = errors.New("player is already in a room")
)
