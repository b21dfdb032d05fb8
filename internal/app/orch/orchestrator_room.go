package orch

import (
	"context"

	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Join(ctx context.Context, id domain.ConnID, raw string) {
	room, err := domain.ParseRoomID(raw)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("join ignored")
		return
	}
	prev, hadPrev := o.Registry.JoinChannel(id, room)
	if hadPrev && prev != room {
		o.vacate(ctx, id, prev)
		log.Info().Str("module", "orch").Str("conn", string(id)).Str("from_room", string(prev)).Msg("switched room")
	}
	o.Rooms.SetMembership(ctx, id, room)
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("joined room")
	o.Rooms.Snapshot(ctx, room)
}

// Leave is a disconnect that keeps the connection open.
func (o *Orchestrator) Leave(ctx context.Context, id domain.ConnID) {
	channel, inChannel := o.Registry.LeaveChannel(id)
	room, ok := o.resolveForCleanup(ctx, id, channel, inChannel)
	if !ok {
		return
	}
	o.vacate(ctx, id, room)
	o.Rooms.ClearMembership(ctx, id)
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("left room")
}

func (o *Orchestrator) Vote(ctx context.Context, id domain.ConnID, value float64) {
	o.Rooms.RegisterVote(ctx, id, value)
}

func (o *Orchestrator) ToggleVisibility(ctx context.Context, id domain.ConnID) {
	if room, ok := o.joinedRoom(ctx, id, "toggle visibility"); ok {
		o.Rooms.ToggleVisibility(ctx, room)
	}
}

func (o *Orchestrator) Reset(ctx context.Context, id domain.ConnID) {
	if room, ok := o.joinedRoom(ctx, id, "reset"); ok {
		o.Rooms.ResetVotes(ctx, room)
	}
}

func (o *Orchestrator) joinedRoom(ctx context.Context, id domain.ConnID, op string) (domain.RoomID, bool) {
	lookup := o.Rooms.RoomOf(ctx, id)
	switch lookup.State {
	case domain.Found:
		return lookup.Room, true
	case domain.LookupFailed:
		log.Warn().Str("module", "orch").Str("conn", string(id)).Str("op", op).Msg("room unresolved, skipping")
	case domain.NotJoined:
		log.Debug().Str("module", "orch").Str("conn", string(id)).Str("op", op).Msg("not in a room")
	}
	return "", false
}
