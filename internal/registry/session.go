package registry

import (
	"fmt"
	"sync"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
	"github.com/paritygrid/parity-grid-backend/internal/pkg"
)

// Conn - the transport handle stored for a session. Implementations serialize
// their own writes; Send must be safe to call from any goroutine.
type Conn interface {
	Send(event string, payload any) error
}

// Session - a reconnect-durable identity for one logical player. The entry
// survives a bare connection drop; only an explicit leave or an expired grace
// timer removes it.
type Session struct {
	ID     string
	Conn   Conn
	RoomID string
}

// SessionRegistry - process-wide session table. Its lock is independent of any
// room's lock; no caller holds both at once.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Create - registers a fresh session bound to the given connection.
func (that *SessionRegistry) Create(conn Conn) string {
	id := pkg.GenerateNewSessionID()

	that.mu.Lock()
	that.sessions[id] = &Session{ID: id, Conn: conn}
	that.mu.Unlock()

	return id
}

// Attach - replaces the connection handle of an existing session, used on
// reconnect. Fails when the session was never registered or already evicted.
func (that *SessionRegistry) Attach(id string, conn Conn) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownSession, id)
	}

	session.Conn = conn

	return nil
}

// Get - looks up a session by id.
func (that *SessionRegistry) Get(id string) (*Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownSession, id)
	}

	return session, nil
}

// SetRoom - records room membership for a session.
func (that *SessionRegistry) SetRoom(id, roomID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownSession, id)
	}

	session.RoomID = roomID

	return nil
}

// Remove - drops a session on confirmed permanent departure. Never called on
// a bare connection close.
func (that *SessionRegistry) Remove(id string) {
	that.mu.Lock()
	delete(that.sessions, id)
	that.mu.Unlock()
}

// Count - number of live sessions.
func (that *SessionRegistry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}
