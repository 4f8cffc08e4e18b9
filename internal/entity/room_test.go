package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
)

func seatTwo(t *testing.T) *Room {
	t.Helper()

	room := NewRoom("abc123")

	role, _, started, err := room.AddPlayer("sess-alice", "Alice", RoleNone)
	require.NoError(t, err)
	require.Equal(t, RoleOdd, role)
	require.False(t, started)

	role, _, started, err = room.AddPlayer("sess-bob", "Bob", RoleNone)
	require.NoError(t, err)
	require.Equal(t, RoleEven, role)
	require.True(t, started)

	return room
}

func TestRoom_AddPlayer(t *testing.T) {
	t.Run("Creator gets ODD, joiner gets EVEN", func(t *testing.T) {
		// Given: an empty room
		room := NewRoom("abc123")

		// When: two players are seated
		first, _, _, err := room.AddPlayer("s1", "Alice", RoleNone)
		require.NoError(t, err)
		second, snapshot, started, err := room.AddPlayer("s2", "Bob", RoleNone)
		require.NoError(t, err)

		// Then: roles are assigned in order and the match starts
		assert.Equal(t, RoleOdd, first)
		assert.Equal(t, RoleEven, second)
		assert.True(t, started)
		assert.Equal(t, StateActive, snapshot.State)
		assert.Equal(t, Board{}, snapshot.Board)
	})

	t.Run("Creator may claim EVEN when the seat is free", func(t *testing.T) {
		room := NewRoom("abc123")

		first, _, _, err := room.AddPlayer("s1", "Alice", RoleEven)
		require.NoError(t, err)
		second, _, _, err := room.AddPlayer("s2", "Bob", RoleNone)
		require.NoError(t, err)

		assert.Equal(t, RoleEven, first)
		assert.Equal(t, RoleOdd, second)
	})

	t.Run("Conflicting preference falls back to the free seat", func(t *testing.T) {
		room := NewRoom("abc123")

		_, _, _, err := room.AddPlayer("s1", "Alice", RoleOdd)
		require.NoError(t, err)

		second, _, _, err := room.AddPlayer("s2", "Bob", RoleOdd)
		require.NoError(t, err)

		assert.Equal(t, RoleEven, second)
	})

	t.Run("Third player is rejected", func(t *testing.T) {
		room := seatTwo(t)

		_, _, _, err := room.AddPlayer("s3", "Carol", RoleNone)

		require.ErrorIs(t, err, apperror.ErrRoomFull)
	})
}

func TestRoom_ApplyIncrement(t *testing.T) {
	t.Run("Ignored while waiting for an opponent", func(t *testing.T) {
		// Given: a room with a single seated player
		room := NewRoom("abc123")
		_, _, _, err := room.AddPlayer("s1", "Alice", RoleNone)
		require.NoError(t, err)

		// When: the player clicks anyway
		_, _, err = room.ApplyIncrement("s1", 0)

		// Then: the move is refused and nothing changes
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
		assert.Equal(t, Board{}, room.Snapshot().Board)
	})

	t.Run("Ignored for a session that is not seated", func(t *testing.T) {
		room := seatTwo(t)

		_, _, err := room.ApplyIncrement("sess-stranger", 0)

		require.ErrorIs(t, err, apperror.ErrNotInRoom)
	})

	t.Run("Out-of-range square leaves no trace", func(t *testing.T) {
		room := seatTwo(t)

		_, _, err := room.ApplyIncrement("sess-alice", 25)

		require.ErrorIs(t, err, apperror.ErrOutOfRange)
		snapshot := room.Snapshot()
		assert.Equal(t, 0, snapshot.ClickCounts[RoleOdd])
	})

	t.Run("Counts clicks per role and detects the win", func(t *testing.T) {
		// Given: Alice (ODD) and Bob (EVEN) in an active room
		room := seatTwo(t)

		// When: Alice clicks square 0 three times, Bob clicks square 1 twice
		for i := 0; i < 3; i++ {
			_, finished, err := room.ApplyIncrement("sess-alice", 0)
			require.NoError(t, err)
			require.False(t, finished)
		}
		for i := 0; i < 2; i++ {
			_, finished, err := room.ApplyIncrement("sess-bob", 1)
			require.NoError(t, err)
			require.False(t, finished)
		}

		// Then: the first row is mixed parity and nobody has won
		snapshot := room.Snapshot()
		assert.Equal(t, 3, snapshot.Board[0])
		assert.Equal(t, 2, snapshot.Board[1])
		assert.Equal(t, StateActive, snapshot.State)

		// When: Alice flips square 1 back to odd and completes the row
		var finished bool
		var err error
		for _, square := range []int{1, 2, 3, 4} {
			snapshot, finished, err = room.ApplyIncrement("sess-alice", square)
			require.NoError(t, err)
		}

		// Then: ODD wins on the first row
		require.True(t, finished)
		assert.Equal(t, StateGameOver, snapshot.State)
		assert.Equal(t, RoleOdd, snapshot.Winner)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, snapshot.WinningLine)
		assert.Equal(t, 7, snapshot.ClickCounts[RoleOdd])
		assert.Equal(t, 2, snapshot.ClickCounts[RoleEven])

		// And: further moves are refused
		_, _, err = room.ApplyIncrement("sess-bob", 5)
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
	})
}

func TestRoom_RequestRematch(t *testing.T) {
	finishGame := func(t *testing.T) *Room {
		t.Helper()
		room := seatTwo(t)
		for _, square := range []int{0, 1, 2, 3, 4} {
			_, _, err := room.ApplyIncrement("sess-alice", square)
			require.NoError(t, err)
		}
		require.Equal(t, StateGameOver, room.Snapshot().State)
		return room
	}

	t.Run("Ignored before the game is over", func(t *testing.T) {
		room := seatTwo(t)

		_, _, _, err := room.RequestRematch("sess-alice")

		require.ErrorIs(t, err, apperror.ErrGameNotOver)
	})

	t.Run("A single vote keeps the room in game over", func(t *testing.T) {
		room := finishGame(t)

		role, snapshot, restarted, err := room.RequestRematch("sess-alice")

		require.NoError(t, err)
		assert.Equal(t, RoleOdd, role)
		assert.False(t, restarted)
		assert.Equal(t, StateGameOver, snapshot.State)
	})

	t.Run("Unanimous votes reset the room to a fresh active game", func(t *testing.T) {
		room := finishGame(t)

		_, _, _, err := room.RequestRematch("sess-alice")
		require.NoError(t, err)
		_, snapshot, restarted, err := room.RequestRematch("sess-bob")
		require.NoError(t, err)

		assert.True(t, restarted)
		assert.Equal(t, StateActive, snapshot.State)
		assert.Equal(t, Board{}, snapshot.Board)
		assert.Equal(t, 0, snapshot.ClickCounts[RoleOdd])
		assert.Equal(t, 0, snapshot.ClickCounts[RoleEven])
		assert.Equal(t, RoleNone, snapshot.Winner)
		assert.Empty(t, snapshot.WinningLine)
	})

	t.Run("Duplicate votes from one role do not restart", func(t *testing.T) {
		room := finishGame(t)

		_, _, _, err := room.RequestRematch("sess-alice")
		require.NoError(t, err)
		_, _, restarted, err := room.RequestRematch("sess-alice")
		require.NoError(t, err)

		assert.False(t, restarted)
	})
}

func TestRoom_DisconnectAndReattach(t *testing.T) {
	t.Run("Disconnect marks the seat and attaches an eviction", func(t *testing.T) {
		room := seatTwo(t)

		eviction, snapshot, lastOccupant, err := room.BeginDisconnect("sess-bob")

		require.NoError(t, err)
		require.NotNil(t, eviction)
		assert.False(t, lastOccupant)
		assert.False(t, snapshot.Players[1].IsConnected)
	})

	t.Run("Sole occupant disconnecting reports last occupant", func(t *testing.T) {
		room := NewRoom("abc123")
		_, _, _, err := room.AddPlayer("s1", "Alice", RoleNone)
		require.NoError(t, err)

		eviction, _, lastOccupant, err := room.BeginDisconnect("s1")

		require.NoError(t, err)
		assert.Nil(t, eviction)
		assert.True(t, lastOccupant)
	})

	t.Run("Reattach restores the seat and cancels the eviction", func(t *testing.T) {
		// Given: Bob disconnected mid-game with some state on the board
		room := seatTwo(t)
		_, _, err := room.ApplyIncrement("sess-alice", 0)
		require.NoError(t, err)
		_, _, _, err = room.BeginDisconnect("sess-bob")
		require.NoError(t, err)

		// When: Bob reattaches before the timer fires
		role, snapshot, err := room.ReattachPlayer("sess-bob")

		// Then: his role and the board are intact
		require.NoError(t, err)
		assert.Equal(t, RoleEven, role)
		assert.True(t, snapshot.Players[1].IsConnected)
		assert.Equal(t, 1, snapshot.Board[0])
		assert.Equal(t, StateActive, snapshot.State)
	})

	t.Run("Reattach loses to a resolved eviction", func(t *testing.T) {
		// Given: Bob disconnected and the timer already claimed the eviction
		room := seatTwo(t)
		eviction, _, _, err := room.BeginDisconnect("sess-bob")
		require.NoError(t, err)
		require.True(t, eviction.Resolve())

		// When: the reconnect arrives late
		_, _, err = room.ReattachPlayer("sess-bob")

		// Then: the session is treated as unknown
		require.ErrorIs(t, err, apperror.ErrUnknownSession)
	})

	t.Run("Reattach stops an armed grace timer", func(t *testing.T) {
		// Given: Bob disconnected with the grace timer scheduled
		room := seatTwo(t)
		eviction, _, _, err := room.BeginDisconnect("sess-bob")
		require.NoError(t, err)

		fired := make(chan struct{})
		eviction.Arm(time.AfterFunc(20*time.Millisecond, func() {
			if eviction.Resolve() {
				close(fired)
			}
		}))

		// When: Bob reattaches first
		_, _, err = room.ReattachPlayer("sess-bob")
		require.NoError(t, err)

		// Then: the timer never claims the eviction
		select {
		case <-fired:
			t.Fatal("timer fired after the seat was restored")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("Disarm before the timer is armed is harmless", func(t *testing.T) {
		room := seatTwo(t)
		eviction, _, _, err := room.BeginDisconnect("sess-bob")
		require.NoError(t, err)

		eviction.Disarm()

		_, _, err = room.ReattachPlayer("sess-bob")
		require.NoError(t, err)
	})

	t.Run("Reattach of a connected seat is rejected", func(t *testing.T) {
		room := seatTwo(t)

		_, _, err := room.ReattachPlayer("sess-bob")

		require.ErrorIs(t, err, apperror.ErrUnknownSession)
	})
}

func TestRoom_RemovePlayer(t *testing.T) {
	t.Run("Removing one of two players credits the survivor", func(t *testing.T) {
		// Given: an active game with two clicks on the board
		room := seatTwo(t)
		_, _, err := room.ApplyIncrement("sess-alice", 0)
		require.NoError(t, err)

		// When: Bob is removed permanently
		departure, err := room.RemovePlayer("sess-bob")

		// Then: Alice survives as default winner and the room is rehydrated
		require.NoError(t, err)
		assert.False(t, departure.Empty)
		assert.Equal(t, RoleEven, departure.Role)
		assert.Equal(t, RoleOdd, departure.Survivor)
		assert.Equal(t, StateActive, departure.Prior.State)
		assert.Equal(t, 1, departure.Prior.ClickCounts[RoleOdd])
		assert.Equal(t, StateWaiting, departure.Snapshot.State)
		assert.Equal(t, Board{}, departure.Snapshot.Board)
		require.Len(t, departure.Snapshot.Players, 1)
		assert.Equal(t, "Alice", departure.Snapshot.Players[0].Name)
	})

	t.Run("Removing the last player empties the room", func(t *testing.T) {
		room := NewRoom("abc123")
		_, _, _, err := room.AddPlayer("s1", "Alice", RoleNone)
		require.NoError(t, err)

		departure, err := room.RemovePlayer("s1")

		require.NoError(t, err)
		assert.True(t, departure.Empty)
	})

	t.Run("Rehydrated room accepts a new opponent and restarts", func(t *testing.T) {
		// Given: a room where Bob forfeited
		room := seatTwo(t)
		_, err := room.RemovePlayer("sess-bob")
		require.NoError(t, err)

		// When: Carol takes the vacated seat
		role, snapshot, started, err := room.AddPlayer("sess-carol", "Carol", RoleNone)

		// Then: she gets EVEN and a fresh match starts
		require.NoError(t, err)
		assert.Equal(t, RoleEven, role)
		assert.True(t, started)
		assert.Equal(t, StateActive, snapshot.State)
	})
}
