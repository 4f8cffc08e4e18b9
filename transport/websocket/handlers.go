package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
	"github.com/paritygrid/parity-grid-backend/internal/usecase"
)

func (that *Server) handleCreateRoom(_ context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleCreateRoom")

	var payloadReq CreateRoomPayload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.PlayerName == "" {
		log.Error("player name is missing in payload")
		return that.sendError(c, "playerName is required")
	}

	payloadResp, err := that.uRoom.CreateRoom(c.sessionID, payloadReq.PlayerName, payloadReq.PreferredRole)

	if errors.Is(err, apperror.ErrAlreadyInRoom) {
		return that.sendError(c, "already in a room")
	}

	if err != nil {
		log.Error("failed to create room", "error", err)
		return that.sendError(c, "failed to create a new room")
	}

	if err = c.conn.Send(usecase.EventRoomCreated, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("room created", "roomID", payloadResp.RoomID)

	return nil
}

func (that *Server) handleJoinRoom(_ context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleJoinRoom")

	var payloadReq JoinRoomPayload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.PlayerName == "" || payloadReq.RoomID == "" {
		log.Error("playerName or roomId is missing in payload")
		return that.sendError(c, "playerName and roomId are required")
	}

	payloadResp, err := that.uRoom.JoinRoom(c.sessionID, payloadReq.RoomID, payloadReq.PlayerName)

	if errors.Is(err, apperror.ErrAlreadyInRoom) {
		return that.sendError(c, "already in a room")
	}

	if errors.Is(err, apperror.ErrRoomNotFound) {
		return that.sendError(c, "room does not exist")
	}

	if errors.Is(err, apperror.ErrRoomFull) {
		return that.sendError(c, "room is already full")
	}

	if err != nil {
		log.Error("failed to join room", "roomID", payloadReq.RoomID, "error", err)
		return that.sendError(c, "failed to join the room")
	}

	if err = c.conn.Send(usecase.EventJoinSuccess, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("player joined room", "roomID", payloadResp.RoomID)

	return nil
}

func (that *Server) handleIncrement(ctx context.Context, msg *Message, c *client) error {
	var payloadReq IncrementPayload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	err := that.uRoom.Increment(ctx, c.sessionID, payloadReq.Square)
	if err != nil && !usecase.IsSilentError(err) {
		return fmt.Errorf("failed to apply increment: %w", err)
	}

	return nil
}

func (that *Server) handleRequestRematch(_ context.Context, _ *Message, c *client) error {
	err := that.uRoom.RequestRematch(c.sessionID)
	if err != nil && !usecase.IsSilentError(err) {
		return fmt.Errorf("failed to request rematch: %w", err)
	}

	return nil
}

func (that *Server) handleReconnect(_ context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleReconnect")

	var payloadReq ReconnectPayload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.SessionID == "" {
		return nil
	}

	payloadResp, err := that.uRoom.Reconnect(c.sessionID, payloadReq.SessionID, c.conn)
	if err != nil {
		// a stale or evicted session id is ignored; the client keeps the
		// fresh session it was handed on connect
		log.Info("reconnect rejected", "error", err)
		return nil
	}

	c.sessionID = payloadReq.SessionID

	if err = c.conn.Send(usecase.EventReconnectSuccess, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("player reconnected", "roomID", payloadResp.RoomID)

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, _ *Message, c *client) error {
	log := that.logger.With("method", "handleLeaveRoom")

	err := that.uRoom.Leave(ctx, c.sessionID)
	if err != nil {
		if !usecase.IsSilentError(err) && !errors.Is(err, apperror.ErrRoomNotFound) {
			return fmt.Errorf("failed to leave room: %w", err)
		}
		return nil
	}

	// the old session is gone for good; hand the still-open connection a
	// fresh identity so it can create or join another room
	c.sessionID = that.uRoom.Connect(c.conn)

	if err = c.conn.Send(usecase.EventSessionCreated, usecase.SessionCreatedPayload{SessionID: c.sessionID}); err != nil {
		return fmt.Errorf("failed to send session: %w", err)
	}

	log.Info("player left room")

	return nil
}
