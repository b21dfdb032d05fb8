// Package orch is the gateway: it routes connection events to the room
// operations and keeps the per-connection state machine.
package orch

import (
	"context"

	"github.com/dkeye/Rooms/internal/app"
	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Rooms
}

// Connect registers a new connection. Nothing is broadcast until it joins.
func (o *Orchestrator) Connect(id domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Bind(id, conn, cancel)
	f, err := core.Encode(core.EventConnected, id)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode connected")
		return
	}
	if err := o.Registry.Send(id, f); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("connected notice not sent")
	}
}

// OnDisconnect tears the connection down. The transport side goes first so
// the member list broadcast afterwards no longer contains it.
func (o *Orchestrator) OnDisconnect(ctx context.Context, id domain.ConnID) {
	channel, inChannel := o.Registry.Unbind(id)
	room, ok := o.resolveForCleanup(ctx, id, channel, inChannel)
	if !ok {
		return
	}
	o.vacate(ctx, id, room)
	o.Rooms.ClearMembership(ctx, id)
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(room)).Msg("disconnected from room")
}

// resolveForCleanup picks the room a departing connection must be removed
// from. The store wins; the local channel covers failed or expired lookups.
func (o *Orchestrator) resolveForCleanup(ctx context.Context, id domain.ConnID, channel domain.RoomID, inChannel bool) (domain.RoomID, bool) {
	lookup := o.Rooms.RoomOf(ctx, id)
	switch {
	case lookup.Ok():
		return lookup.Room, true
	case inChannel:
		log.Warn().Str("module", "orch").Str("conn", string(id)).Stringer("lookup", lookup.State).Str("room", string(channel)).Msg("using channel for cleanup")
		return channel, true
	default:
		return "", false
	}
}

// vacate removes the connection's traces from room and tells the rest.
func (o *Orchestrator) vacate(ctx context.Context, id domain.ConnID, room domain.RoomID) {
	o.Rooms.RemoveVote(ctx, room, id)
	o.Rooms.BroadcastUsers(ctx, room)
}
