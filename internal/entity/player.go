package entity

import (
	"sync"
	"sync/atomic"
	"time"
)

// Player - one seat in a room. The seat survives a connection drop: it stays
// in the room marked not-connected, with a pending eviction attached, so a
// reconnect can restore it without losing role, name or score.
type Player struct {
	Role        Role
	Name        string
	SessionID   string
	IsConnected bool

	// Eviction is present only while the player is disconnected.
	Eviction *Eviction
}

// Eviction - the pending forfeiture of a disconnected seat. The grace timer
// and the reconnect handler race for Resolve; exactly one of them wins and
// applies its effect. The timer handle has its own lock because it is armed
// outside the room lock while the reconnect path reads it under the room lock.
type Eviction struct {
	mu    sync.Mutex
	timer *time.Timer

	resolved atomic.Bool
}

// Resolve - claims the eviction. Returns false when the other side of the
// race already claimed it.
func (that *Eviction) Resolve() bool {
	return that.resolved.CompareAndSwap(false, true)
}

// Arm - stores the scheduled grace timer.
func (that *Eviction) Arm(timer *time.Timer) {
	that.mu.Lock()
	that.timer = timer
	that.mu.Unlock()
}

// Disarm - stops the armed timer. The reconnect may win the race before the
// handle is stored; the resolved guard makes a late fire a no-op.
func (that *Eviction) Disarm() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.timer != nil {
		that.timer.Stop()
	}
}

// PlayerInfo - the wire representation of a seat.
type PlayerInfo struct {
	Role        Role   `json:"role"`
	Name        string `json:"name"`
	IsConnected bool   `json:"isConnected"`
}
