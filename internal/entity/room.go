package entity

import (
	"fmt"
	"sync"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
)

const (
	StateWaiting  State = "waiting"
	StateActive   State = "active"
	StateGameOver State = "game_over"
)

const maxPlayers = 2

// State - the room's game state.
type State string

// Room - one game instance with up to two seated players. Every mutation runs
// under the room's own mutex; callers receive immutable snapshots taken under
// the lock, so outbound broadcasts never touch live state.
type Room struct {
	mu sync.Mutex

	id           string
	board        Board
	state        State
	clickCounts  map[Role]int
	winner       Role
	winningLine  []int
	rematchVotes map[Role]struct{}
	players      []*Player
}

// NewRoom - creates an empty room in the waiting state.
func NewRoom(id string) *Room {
	return &Room{
		id:           id,
		state:        StateWaiting,
		clickCounts:  map[Role]int{RoleOdd: 0, RoleEven: 0},
		rematchVotes: make(map[Role]struct{}),
	}
}

func (that *Room) ID() string {
	return that.id
}

// Snapshot - a consistent copy of the room taken under its lock. Sessions
// holds the session id of each seat, index-aligned with Players; it never
// leaves the process.
type Snapshot struct {
	RoomID      string
	Board       Board
	State       State
	ClickCounts map[Role]int
	Winner      Role
	WinningLine []int
	Players     []PlayerInfo
	Sessions    []string
}

// AddPlayer - seats a session. The first occupant gets ODD unless a free
// preferred role is requested; the second occupant gets the remaining seat.
// Seating the second player starts the match with a fresh board.
func (that *Room) AddPlayer(sessionID, name string, preferred Role) (Role, Snapshot, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.players) >= maxPlayers {
		return RoleNone, Snapshot{}, false, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.id)
	}

	role := that.freeRoleLocked(preferred)

	that.players = append(that.players, &Player{
		Role:        role,
		Name:        name,
		SessionID:   sessionID,
		IsConnected: true,
	})

	started := false
	if len(that.players) == maxPlayers {
		that.resetLocked()
		that.state = StateActive
		started = true
	}

	return role, that.snapshotLocked(), started, nil
}

// ApplyIncrement - increments the caller's click counter and the square, then
// evaluates the board. A win freezes the room in the game-over state.
func (that *Room) ApplyIncrement(sessionID string, index int) (Snapshot, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerBySessionLocked(sessionID)
	if player == nil {
		return Snapshot{}, false, apperror.ErrNotInRoom
	}

	if that.state != StateActive {
		return Snapshot{}, false, fmt.Errorf("%w: room %s is %s", apperror.ErrGameNotActive, that.id, that.state)
	}

	if err := that.board.Increment(index); err != nil {
		return Snapshot{}, false, err
	}

	that.clickCounts[player.Role]++

	winner, line := that.board.Evaluate()
	if winner != RoleNone {
		that.state = StateGameOver
		that.winner = winner
		that.winningLine = line
	}

	return that.snapshotLocked(), winner != RoleNone, nil
}

// RequestRematch - records the caller's vote. When every seated role has
// voted, the room resets to a fresh active game.
func (that *Room) RequestRematch(sessionID string) (Role, Snapshot, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerBySessionLocked(sessionID)
	if player == nil {
		return RoleNone, Snapshot{}, false, apperror.ErrNotInRoom
	}

	if that.state != StateGameOver {
		return RoleNone, Snapshot{}, false, fmt.Errorf("%w: room %s is %s", apperror.ErrGameNotOver, that.id, that.state)
	}

	that.rematchVotes[player.Role] = struct{}{}

	restarted := false
	if len(that.rematchVotes) == len(that.players) {
		that.resetLocked()
		that.state = StateActive
		restarted = true
	}

	return player.Role, that.snapshotLocked(), restarted, nil
}

// BeginDisconnect - marks a seat not-connected and attaches a pending
// eviction for the grace timer. Reports whether the seat was the last
// occupant, in which case the room is deleted immediately and no timer runs.
func (that *Room) BeginDisconnect(sessionID string) (*Eviction, Snapshot, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerBySessionLocked(sessionID)
	if player == nil {
		return nil, Snapshot{}, false, apperror.ErrNotInRoom
	}

	if len(that.players) == 1 {
		return nil, that.snapshotLocked(), true, nil
	}

	player.IsConnected = false
	player.Eviction = &Eviction{}

	return player.Eviction, that.snapshotLocked(), false, nil
}

// ReattachPlayer - restores a disconnected seat before its grace timer fires.
// Fails when the seat is unknown, still connected, or already evicted.
func (that *Room) ReattachPlayer(sessionID string) (Role, Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerBySessionLocked(sessionID)
	if player == nil || player.Eviction == nil {
		return RoleNone, Snapshot{}, apperror.ErrUnknownSession
	}

	if !player.Eviction.Resolve() {
		// the timer won the race; the seat is gone
		return RoleNone, Snapshot{}, apperror.ErrUnknownSession
	}

	player.Eviction.Disarm()
	player.Eviction = nil
	player.IsConnected = true

	return player.Role, that.snapshotLocked(), nil
}

// Departure - the outcome of a seat leaving for good. Prior is the room state
// just before the seat was removed; Snapshot is the state after any reset.
type Departure struct {
	Role     Role
	Empty    bool
	Survivor Role
	Prior    Snapshot
	Snapshot Snapshot
}

// RemovePlayer - detaches a seat permanently. When exactly one player
// remains, the survivor is credited a default win and the room is rehydrated
// to a fresh waiting state that keeps the survivor seated.
func (that *Room) RemovePlayer(sessionID string) (Departure, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.playerBySessionLocked(sessionID)
	if player == nil {
		return Departure{}, apperror.ErrNotInRoom
	}

	prior := that.snapshotLocked()

	remaining := that.players[:0]
	for _, p := range that.players {
		if p.SessionID != sessionID {
			remaining = append(remaining, p)
		}
	}
	that.players = remaining

	departure := Departure{Role: player.Role, Prior: prior}

	if len(that.players) == 0 {
		departure.Empty = true
		departure.Snapshot = that.snapshotLocked()
		return departure, nil
	}

	survivor := that.players[0]
	departure.Survivor = survivor.Role

	that.resetLocked()
	that.state = StateWaiting
	departure.Snapshot = that.snapshotLocked()

	return departure, nil
}

// Snapshot - a consistent copy of the current room state.
func (that *Room) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

func (that *Room) freeRoleLocked(preferred Role) Role {
	taken := map[Role]bool{}
	for _, p := range that.players {
		taken[p.Role] = true
	}

	if (preferred == RoleOdd || preferred == RoleEven) && !taken[preferred] {
		return preferred
	}

	if !taken[RoleOdd] {
		return RoleOdd
	}

	return RoleEven
}

func (that *Room) playerBySessionLocked(sessionID string) *Player {
	for _, p := range that.players {
		if p.SessionID == sessionID {
			return p
		}
	}

	return nil
}

func (that *Room) resetLocked() {
	that.board = Board{}
	that.clickCounts = map[Role]int{RoleOdd: 0, RoleEven: 0}
	that.rematchVotes = make(map[Role]struct{})
	that.winner = RoleNone
	that.winningLine = nil
}

func (that *Room) snapshotLocked() Snapshot {
	counts := make(map[Role]int, len(that.clickCounts))
	for role, count := range that.clickCounts {
		counts[role] = count
	}

	players := make([]PlayerInfo, 0, len(that.players))
	sessions := make([]string, 0, len(that.players))
	for _, p := range that.players {
		players = append(players, PlayerInfo{
			Role:        p.Role,
			Name:        p.Name,
			IsConnected: p.IsConnected,
		})
		sessions = append(sessions, p.SessionID)
	}

	var line []int
	if that.winningLine != nil {
		line = append(line, that.winningLine...)
	}

	return Snapshot{
		RoomID:      that.id,
		Board:       that.board,
		State:       that.state,
		ClickCounts: counts,
		Winner:      that.winner,
		WinningLine: line,
		Players:     players,
		Sessions:    sessions,
	}
}
