package app

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var ErrUnknownConn = errors.New("unknown connection")

type connEntry struct {
	Room   domain.RoomID
	Conn   core.SignalConnection
	Cancel context.CancelFunc
}

// Registry owns the live connections of this process and their channel
// membership. It is the authority for who is reachable; the store may lag.
type Registry struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]*connEntry
	channels map[domain.RoomID][]domain.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[domain.ConnID]*connEntry),
		channels: make(map[domain.RoomID][]domain.ConnID),
	}
}

func (r *Registry) Bind(id domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("bound connection")
}

// Unbind forgets the connection and drops it from its channel. It returns
// the channel the connection was in, if any.
func (r *Registry) Unbind(id domain.ConnID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	room := e.Room
	r.leaveLocked(id, e)
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbind connection")
	return room, room != ""
}

// JoinChannel moves the connection into room's channel. A connection is in at
// most one channel; the previous one, if any, is returned.
func (r *Registry) JoinChannel(id domain.ConnID, room domain.RoomID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	prev := e.Room
	if prev == room {
		return prev, true
	}
	r.leaveLocked(id, e)
	e.Room = room
	r.channels[room] = append(r.channels[room], id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(room)).Msg("joined channel")
	return prev, prev != ""
}

func (r *Registry) LeaveChannel(id domain.ConnID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.Room == "" {
		return "", false
	}
	room := e.Room
	r.leaveLocked(id, e)
	return room, true
}

func (r *Registry) leaveLocked(id domain.ConnID, e *connEntry) {
	if e.Room == "" {
		return
	}
	left := lo.Without(r.channels[e.Room], id)
	if len(left) == 0 {
		delete(r.channels, e.Room)
	} else {
		r.channels[e.Room] = left
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(e.Room)).Msg("left channel")
	e.Room = ""
}

// Members lists the channel in join order.
func (r *Registry) Members(room domain.RoomID) []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConnID, len(r.channels[room]))
	copy(out, r.channels[room])
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Deliver pushes f to every local member of room. Members whose send buffer
// is full are reported, not waited on.
func (r *Registry) Deliver(room domain.RoomID, f core.Frame) core.PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := core.PublishResult{}
	for _, id := range r.channels[room] {
		e, ok := r.conns[id]
		if !ok {
			continue
		}
		if err := e.Conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.registry").Str("room", string(room)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("deliver result")
	return res
}

func (r *Registry) Send(id domain.ConnID, f core.Frame) error {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownConn
	}
	return e.Conn.TrySend(f)
}

// Cancel stops the connection's pumps and closes its transport. The read
// loop then runs the regular disconnect path.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}
