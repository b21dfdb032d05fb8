package app

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

// RegisterVote records conn's vote in the room it has joined and broadcasts
// the resulting list. Without a resolved room the value is discarded.
func (r *Rooms) RegisterVote(ctx context.Context, conn domain.ConnID, value float64) {
	lookup := r.RoomOf(ctx, conn)
	if !lookup.Ok() {
		log.Debug().Str("module", "app.votes").Str("conn", string(conn)).Stringer("lookup", lookup.State).Msg("vote dropped: no room")
		return
	}
	r.updateVotes(ctx, lookup.Room, func(votes domain.Votes) domain.Votes {
		return votes.Upsert(conn, value)
	})
}

// RemoveVote drops conn's entry from room and broadcasts the remaining list.
func (r *Rooms) RemoveVote(ctx context.Context, room domain.RoomID, conn domain.ConnID) {
	r.updateVotes(ctx, room, func(votes domain.Votes) domain.Votes {
		out, _ := votes.Without(conn)
		return out
	})
}

// ResetVotes empties the room's list. Visibility is left alone.
func (r *Rooms) ResetVotes(ctx context.Context, room domain.RoomID) {
	if room == "" {
		return
	}
	unlock := r.locks.Lock(room)
	defer unlock()

	empty := domain.Votes{}
	b, _ := json.Marshal(empty)
	setCtx, cancel := r.opCtx(ctx)
	err := r.Store.Set(setCtx, string(room), b)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("module", "app.votes").Str("room", string(room)).Msg("reset failed")
		return
	}
	r.broadcast(ctx, room, core.EventVotes, empty)
}

// updateVotes is the shared read-modify-write: the list that is persisted is
// the list that is broadcast.
func (r *Rooms) updateVotes(ctx context.Context, room domain.RoomID, mutate func(domain.Votes) domain.Votes) {
	if room == "" {
		return
	}
	unlock := r.locks.Lock(room)
	defer unlock()

	var votes domain.Votes
	_, err := r.swap(ctx, string(room), func(old []byte, found bool) ([]byte, error) {
		current := domain.Votes{}
		if found {
			current = decodeVotes(room, old)
		}
		votes = mutate(current)
		if votes == nil {
			votes = domain.Votes{}
		}
		return json.Marshal(votes)
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.votes").Str("room", string(room)).Msg("votes update failed")
		return
	}
	r.broadcast(ctx, room, core.EventVotes, votes)
}
