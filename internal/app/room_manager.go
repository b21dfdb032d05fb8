package app

import (
	"sync"

	"github.com/dkeye/Rooms/internal/domain"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// roomLocks serializes state mutations per room within this process.
// Entries live only while someone holds or waits for them.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[domain.RoomID]*roomLock)}
}

func (l *roomLocks) Lock(room domain.RoomID) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.rooms[room]
	if !ok {
		rl = &roomLock{}
		l.rooms[room] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.rooms, room)
		}
		l.mu.Unlock()
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
