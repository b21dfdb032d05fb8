package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

// ToggleVisibility flips the room's reveal flag and broadcasts the new value.
func (r *Rooms) ToggleVisibility(ctx context.Context, room domain.RoomID) {
	if room == "" {
		return
	}
	unlock := r.locks.Lock(room)
	defer unlock()

	var visible bool
	_, err := r.swap(ctx, room.VisibilityKey(), func(old []byte, found bool) ([]byte, error) {
		visible = true
		if found {
			visible = !decodeVisibility(room, old)
		}
		return json.Marshal(visible)
	})
	switch {
	case errors.Is(err, core.ErrStoreRead):
		// An unreadable flag counts as false, so its toggle is true.
		log.Warn().Err(err).Str("module", "app.visibility").Str("room", string(room)).Msg("read failed, toggling from default")
		visible = true
		setCtx, cancel := r.opCtx(ctx)
		err = r.Store.Set(setCtx, room.VisibilityKey(), []byte("true"))
		cancel()
		if err != nil {
			log.Error().Err(err).Str("module", "app.visibility").Str("room", string(room)).Msg("toggle failed")
			return
		}
	case err != nil:
		log.Error().Err(err).Str("module", "app.visibility").Str("room", string(room)).Msg("toggle failed")
		return
	}
	r.broadcast(ctx, room, core.EventVisibility, visible)
}
