package registry

import (
	"fmt"
	"sync"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
	"github.com/paritygrid/parity-grid-backend/internal/entity"
	"github.com/paritygrid/parity-grid-backend/internal/pkg"
)

// RoomRegistry - process-wide room table. Rooms operate fully in parallel;
// this lock only guards creation, lookup and deletion.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*entity.Room),
	}
}

// Create - produces a room under a fresh short id.
func (that *RoomRegistry) Create() *entity.Room {
	room := entity.NewRoom(pkg.GenerateRoomID())

	that.mu.Lock()
	that.rooms[room.ID()] = room
	that.mu.Unlock()

	return room
}

// Get - looks up a room by id.
func (that *RoomRegistry) Get(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return room, nil
}

// Delete - removes a room once it has no players left.
func (that *RoomRegistry) Delete(id string) {
	that.mu.Lock()
	delete(that.rooms, id)
	that.mu.Unlock()
}

// Count - number of live rooms.
func (that *RoomRegistry) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
