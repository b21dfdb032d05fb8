package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

// MemberLister reports the connections currently in a room's channel.
type MemberLister interface {
	Members(room domain.RoomID) []domain.ConnID
}

// Rooms implements the room queries and state mutations on top of the
// shared store. Every method swallows store failures after logging them.
type Rooms struct {
	Store     core.Store
	Bus       core.Broadcaster
	Members   MemberLister
	OpTimeout time.Duration

	locks *roomLocks
}

func NewRooms(store core.Store, bus core.Broadcaster, members MemberLister, opTimeout time.Duration) *Rooms {
	return &Rooms{
		Store:     store,
		Bus:       bus,
		Members:   members,
		OpTimeout: opTimeout,
		locks:     newRoomLocks(),
	}
}

func (r *Rooms) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.OpTimeout)
}

// RoomOf resolves the connection's membership entry.
func (r *Rooms) RoomOf(ctx context.Context, conn domain.ConnID) domain.Lookup {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	b, err := r.Store.Get(ctx, string(conn))
	if errors.Is(err, core.ErrNotFound) {
		return domain.Lookup{State: domain.NotJoined}
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("conn", string(conn)).Msg("room lookup failed")
		return domain.Lookup{State: domain.LookupFailed}
	}
	if len(b) == 0 {
		return domain.Lookup{State: domain.NotJoined}
	}
	return domain.FoundRoom(domain.RoomID(b))
}

func (r *Rooms) MembersOf(room domain.RoomID) []domain.ConnID {
	if r.Members == nil {
		return []domain.ConnID{}
	}
	return r.Members.Members(room)
}

// VotesOf never fails: a missing room is the normal initial state.
func (r *Rooms) VotesOf(ctx context.Context, room domain.RoomID) domain.Votes {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	b, err := r.Store.Get(ctx, string(room))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room)).Msg("votes read failed")
		}
		return domain.Votes{}
	}
	return decodeVotes(room, b)
}

func (r *Rooms) VisibilityOf(ctx context.Context, room domain.RoomID) bool {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	b, err := r.Store.Get(ctx, room.VisibilityKey())
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room)).Msg("visibility read failed")
		}
		return false
	}
	return decodeVisibility(room, b)
}

func (r *Rooms) SetMembership(ctx context.Context, conn domain.ConnID, room domain.RoomID) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.Store.Set(ctx, string(conn), []byte(room)); err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("conn", string(conn)).Str("room", string(room)).Msg("membership write failed")
	}
}

func (r *Rooms) ClearMembership(ctx context.Context, conn domain.ConnID) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if err := r.Store.Delete(ctx, string(conn)); err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("conn", string(conn)).Msg("membership delete failed")
	}
}

// Snapshot pushes users, votes and visibility to the whole room. It holds the
// room lock so no mutation's broadcast can land between its reads and its
// own broadcasts.
func (r *Rooms) Snapshot(ctx context.Context, room domain.RoomID) {
	unlock := r.locks.Lock(room)
	defer unlock()
	r.BroadcastUsers(ctx, room)
	r.broadcast(ctx, room, core.EventVotes, r.VotesOf(ctx, room))
	r.broadcast(ctx, room, core.EventVisibility, r.VisibilityOf(ctx, room))
}

func (r *Rooms) BroadcastUsers(ctx context.Context, room domain.RoomID) {
	r.broadcast(ctx, room, core.EventUsers, r.MembersOf(room))
}

func (r *Rooms) broadcast(ctx context.Context, room domain.RoomID, event string, payload any) {
	f, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room)).Msg("encode failed")
		return
	}
	if err := r.Bus.Publish(ctx, room, f); err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Str("room", string(room)).Str("event", event).Msg("broadcast failed")
	}
}

// swap applies a read-modify-write to key. Callers hold the room lock; the
// store's Swapper additionally guards against other processes.
func (r *Rooms) swap(ctx context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) ([]byte, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()
	if sw, ok := r.Store.(core.Swapper); ok {
		return sw.Swap(ctx, key, fn)
	}
	old, err := r.Store.Get(ctx, key)
	found := true
	if errors.Is(err, core.ErrNotFound) {
		found, err = false, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreRead, err)
	}
	next, err := fn(old, found)
	if err != nil {
		return nil, err
	}
	if err := r.Store.Set(ctx, key, next); err != nil {
		return nil, err
	}
	return next, nil
}

func decodeVotes(room domain.RoomID, b []byte) domain.Votes {
	var votes domain.Votes
	if err := json.Unmarshal(b, &votes); err != nil {
		log.Warn().Err(err).Str("module", "app.rooms").Str("room", string(room)).Msg("discarding undecodable votes")
		return domain.Votes{}
	}
	if votes == nil {
		return domain.Votes{}
	}
	return votes
}

func decodeVisibility(room domain.RoomID, b []byte) bool {
	var visible bool
	if err := json.Unmarshal(b, &visible); err != nil {
		log.Warn().Err(err).Str("module", "app.rooms").Str("room", string(room)).Msg("discarding undecodable visibility")
		return false
	}
	return visible
}
