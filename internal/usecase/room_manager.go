package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
	"github.com/paritygrid/parity-grid-backend/internal/entity"
	"github.com/paritygrid/parity-grid-backend/internal/registry"
	"github.com/paritygrid/parity-grid-backend/internal/repository"
)

const archiveTimeout = 5 * time.Second

// RoomManager - orchestrates sessions, rooms and the match archive. All room
// transitions run under the owning room's lock inside entity.Room; broadcasts
// go out after the lock is released, built from snapshots taken under it.
type RoomManager struct {
	logger   *slog.Logger
	rooms    *registry.RoomRegistry
	sessions *registry.SessionRegistry
	matches  repository.MatchRepository

	grace time.Duration
}

func NewRoomManager(logger *slog.Logger, rooms *registry.RoomRegistry, sessions *registry.SessionRegistry, matches repository.MatchRepository, grace time.Duration) *RoomManager {
	return &RoomManager{
		logger:   logger,
		rooms:    rooms,
		sessions: sessions,
		matches:  matches,
		grace:    grace,
	}
}

// Connect - registers a fresh session for a new connection.
func (that *RoomManager) Connect(conn registry.Conn) string {
	return that.sessions.Create(conn)
}

// CreateRoom - produces a room and seats the creator.
func (that *RoomManager) CreateRoom(sessionID, playerName string, preferred entity.Role) (*RoomCreatedPayload, error) {
	log := that.logger.With("method", "CreateRoom")

	if err := that.ensureUnseated(sessionID); err != nil {
		return nil, err
	}

	room := that.rooms.Create()

	role, snapshot, _, err := room.AddPlayer(sessionID, playerName, preferred)
	if err != nil {
		that.rooms.Delete(room.ID())
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	if err = that.sessions.SetRoom(sessionID, room.ID()); err != nil {
		that.rooms.Delete(room.ID())
		return nil, fmt.Errorf("failed to bind session to room: %w", err)
	}

	log.Info("room created", "roomID", room.ID(), "playerName", playerName, "role", role)

	return &RoomCreatedPayload{
		RoomID:      room.ID(),
		Player:      role,
		Board:       snapshot.Board,
		PlayersInfo: snapshot.Players,
	}, nil
}

// JoinRoom - seats a session in an existing room. Seating the second player
// starts the match and broadcasts GAME_START to both seats.
func (that *RoomManager) JoinRoom(sessionID, roomID, playerName string) (*JoinSuccessPayload, error) {
	log := that.logger.With("method", "JoinRoom", "roomID", roomID)

	if err := that.ensureUnseated(sessionID); err != nil {
		return nil, err
	}

	room, err := that.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	role, snapshot, started, err := room.AddPlayer(sessionID, playerName, entity.RoleNone)
	if err != nil {
		return nil, err
	}

	if err = that.sessions.SetRoom(sessionID, roomID); err != nil {
		return nil, fmt.Errorf("failed to bind session to room: %w", err)
	}

	log.Info("player joined", "playerName", playerName, "role", role)

	if started {
		that.broadcast(snapshot, EventGameStart, GameStartPayload{
			Board:       snapshot.Board,
			PlayersInfo: snapshot.Players,
			ClickCounts: snapshot.ClickCounts,
		}, "")
	}

	return &JoinSuccessPayload{
		RoomID:      roomID,
		Player:      role,
		Board:       snapshot.Board,
		PlayersInfo: snapshot.Players,
	}, nil
}

// Increment - applies one click to the caller's room and broadcasts the
// result. A completed line ends the game and archives the match.
func (that *RoomManager) Increment(ctx context.Context, sessionID string, square int) error {
	room, err := that.roomOfSession(sessionID)
	if err != nil {
		return err
	}

	snapshot, finished, err := room.ApplyIncrement(sessionID, square)
	if err != nil {
		return err
	}

	if !finished {
		that.broadcast(snapshot, EventGameUpdate, GameUpdatePayload{
			Board:       snapshot.Board,
			ClickCounts: snapshot.ClickCounts,
			PlayersInfo: snapshot.Players,
		}, "")
		return nil
	}

	that.broadcast(snapshot, EventGameOver, GameOverPayload{
		Winner:      snapshot.Winner,
		WinningLine: snapshot.WinningLine,
		Board:       snapshot.Board,
		ClickCounts: snapshot.ClickCounts,
	}, "")

	that.archiveMatch(ctx, &repository.MatchResult{
		RoomID:      snapshot.RoomID,
		Winner:      snapshot.Winner,
		WinningLine: snapshot.WinningLine,
		ClickCounts: snapshot.ClickCounts,
		FinishedAt:  time.Now().UTC(),
	})

	return nil
}

// RequestRematch - records a rematch vote; a unanimous vote resets the room
// and broadcasts a fresh GAME_START.
func (that *RoomManager) RequestRematch(sessionID string) error {
	room, err := that.roomOfSession(sessionID)
	if err != nil {
		return err
	}

	role, snapshot, restarted, err := room.RequestRematch(sessionID)
	if err != nil {
		return err
	}

	that.broadcast(snapshot, EventRematchRequested, RematchRequestedPayload{Player: role}, "")

	if restarted {
		that.broadcast(snapshot, EventGameStart, GameStartPayload{
			Board:       snapshot.Board,
			PlayersInfo: snapshot.Players,
			ClickCounts: snapshot.ClickCounts,
		}, "")
	}

	return nil
}

// Reconnect - restores a dropped player onto its old session before the grace
// timer fires. The throwaway session created for the new connection is
// discarded on success.
func (that *RoomManager) Reconnect(currentSessionID, oldSessionID string, conn registry.Conn) (*ReconnectSuccessPayload, error) {
	log := that.logger.With("method", "Reconnect")

	oldSession, err := that.sessions.Get(oldSessionID)
	if err != nil {
		return nil, err
	}

	if oldSession.RoomID == "" {
		return nil, fmt.Errorf("%w: session has no room", apperror.ErrUnknownSession)
	}

	room, err := that.rooms.Get(oldSession.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: room is gone", apperror.ErrUnknownSession)
	}

	role, snapshot, err := room.ReattachPlayer(oldSessionID)
	if err != nil {
		return nil, err
	}

	if err = that.sessions.Attach(oldSessionID, conn); err != nil {
		return nil, err
	}

	if currentSessionID != "" && currentSessionID != oldSessionID {
		that.sessions.Remove(currentSessionID)
	}

	log.Info("player reconnected", "roomID", room.ID(), "role", role)

	that.broadcast(snapshot, EventPlayerReconnected, PlayersInfoPayload{PlayersInfo: snapshot.Players}, oldSessionID)

	return &ReconnectSuccessPayload{
		RoomID:      room.ID(),
		Player:      role,
		Board:       snapshot.Board,
		Winner:      snapshot.Winner,
		WinningLine: snapshot.WinningLine,
		PlayersInfo: snapshot.Players,
	}, nil
}

// Leave - explicit permanent departure, bypassing the grace period.
func (that *RoomManager) Leave(ctx context.Context, sessionID string) error {
	session, err := that.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	if session.RoomID == "" {
		return apperror.ErrNotInRoom
	}

	room, err := that.rooms.Get(session.RoomID)
	if err != nil {
		that.sessions.Remove(sessionID)
		return err
	}

	that.departSeat(ctx, room, sessionID)

	return nil
}

// Disconnect - bookkeeping for a closed connection. A seated player keeps its
// seat for the grace period; the last occupant tears the room down at once.
func (that *RoomManager) Disconnect(sessionID string) {
	log := that.logger.With("method", "Disconnect")

	session, err := that.sessions.Get(sessionID)
	if err != nil {
		return
	}

	if session.RoomID == "" {
		that.sessions.Remove(sessionID)
		return
	}

	room, err := that.rooms.Get(session.RoomID)
	if err != nil {
		that.sessions.Remove(sessionID)
		return
	}

	eviction, snapshot, lastOccupant, err := room.BeginDisconnect(sessionID)
	if err != nil {
		that.sessions.Remove(sessionID)
		return
	}

	if lastOccupant {
		that.rooms.Delete(room.ID())
		that.sessions.Remove(sessionID)
		log.Info("empty room deleted", "roomID", room.ID())
		return
	}

	log.Info("player disconnected, grace timer started", "roomID", room.ID(), "grace", that.grace)

	that.broadcast(snapshot, EventPlayerDisconnected, PlayersInfoPayload{PlayersInfo: snapshot.Players}, sessionID)

	eviction.Arm(time.AfterFunc(that.grace, func() {
		if !eviction.Resolve() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		that.departSeat(ctx, room, sessionID)
	}))
}

// Stats - live counters for the REST surface.
func (that *RoomManager) Stats() (rooms, sessions int) {
	return that.rooms.Count(), that.sessions.Count()
}

// departSeat - the unified "player gone" path shared by the expired grace
// timer and the explicit leave. A surviving player is credited a default win
// and the room is rehydrated to wait for a new opponent.
func (that *RoomManager) departSeat(ctx context.Context, room *entity.Room, sessionID string) {
	log := that.logger.With("method", "departSeat", "roomID", room.ID())

	departure, err := room.RemovePlayer(sessionID)
	if err != nil {
		return
	}

	that.sessions.Remove(sessionID)

	if departure.Empty {
		that.rooms.Delete(room.ID())
		log.Info("room is empty and has been deleted")
		return
	}

	log.Info("player removed, survivor wins by default", "survivor", departure.Survivor)

	that.broadcast(departure.Snapshot, EventOpponentLeftGame, OpponentLeftPayload{
		Winner:      departure.Survivor,
		Board:       departure.Snapshot.Board,
		ClickCounts: departure.Snapshot.ClickCounts,
		PlayersInfo: departure.Snapshot.Players,
	}, "")

	if departure.Prior.State == entity.StateActive {
		that.archiveMatch(ctx, &repository.MatchResult{
			RoomID:      room.ID(),
			Winner:      departure.Survivor,
			ClickCounts: departure.Prior.ClickCounts,
			ByForfeit:   true,
			FinishedAt:  time.Now().UTC(),
		})
	}
}

// ensureUnseated - refuses create/join for a session that already holds a
// seat; the old seat would otherwise stay occupied with no owner.
func (that *RoomManager) ensureUnseated(sessionID string) error {
	session, err := that.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	if session.RoomID != "" {
		return fmt.Errorf("%w: seated in room %s", apperror.ErrAlreadyInRoom, session.RoomID)
	}

	return nil
}

// roomOfSession - resolves the room a session is seated in.
func (that *RoomManager) roomOfSession(sessionID string) (*entity.Room, error) {
	session, err := that.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if session.RoomID == "" {
		return nil, apperror.ErrNotInRoom
	}

	return that.rooms.Get(session.RoomID)
}

// broadcast - sends an event to every connected seat of a snapshot, skipping
// exceptSessionID. Runs strictly after the room lock is released.
func (that *RoomManager) broadcast(snapshot entity.Snapshot, event string, payload any, exceptSessionID string) {
	log := that.logger.With("method", "broadcast", "roomID", snapshot.RoomID, "event", event)

	for i, sid := range snapshot.Sessions {
		if sid == exceptSessionID || !snapshot.Players[i].IsConnected {
			continue
		}

		session, err := that.sessions.Get(sid)
		if err != nil || session.Conn == nil {
			continue
		}

		if err = session.Conn.Send(event, payload); err != nil {
			log.Error("failed to send event", "error", err)
		}
	}
}

func (that *RoomManager) archiveMatch(ctx context.Context, result *repository.MatchResult) {
	log := that.logger.With("method", "archiveMatch", "roomID", result.RoomID)

	if that.matches == nil {
		return
	}

	if err := that.matches.Save(ctx, result); err != nil {
		log.Error("failed to archive match", "error", err)
		return
	}

	log.Info("match archived", "winner", result.Winner, "byForfeit", result.ByForfeit)
}

// IsSilentError - errors that come from stale or duplicate client messages
// are dropped without a reply; everything else is reported to the sender.
func IsSilentError(err error) bool {
	return errors.Is(err, apperror.ErrGameNotActive) ||
		errors.Is(err, apperror.ErrGameNotOver) ||
		errors.Is(err, apperror.ErrOutOfRange) ||
		errors.Is(err, apperror.ErrNotInRoom) ||
		errors.Is(err, apperror.ErrUnknownSession)
}
