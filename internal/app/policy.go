package app

import (
	"context"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

type Policy interface {
	OnBackPressure(room domain.RoomID, conn domain.ConnID) BackpressureAction
}

// SimplePolicy kicks any connection that cannot keep up. It reconnects and
// gets a fresh snapshot on join.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, domain.ConnID) BackpressureAction {
	return KickMember
}

// LocalBroadcaster fans out to the channel members of this process only.
type LocalBroadcaster struct {
	Registry *Registry
	Policy   Policy
}

func (b *LocalBroadcaster) Publish(_ context.Context, room domain.RoomID, f core.Frame) error {
	res := b.Registry.Deliver(room, f)
	if b.Policy == nil {
		return nil
	}
	for _, slow := range res.Dropped {
		switch b.Policy.OnBackPressure(room, slow) {
		case KickMember:
			log.Warn().Str("module", "app.broadcast").Str("conn", string(slow)).Str("room", string(room)).Msg("kicking slow connection")
			b.Registry.Cancel(slow)
		case NoAction:
		}
	}
	return nil
}
