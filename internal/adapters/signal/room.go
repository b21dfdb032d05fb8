package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Rooms/internal/core"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, id domain.ConnID, env core.Envelope) {
	var roomID string
	if err := json.Unmarshal(env.Data, &roomID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad join payload")
		return
	}
	ctl.Orch.Join(ctx, id, roomID)
}

func (ctl *SignalWSController) handleVote(ctx context.Context, id domain.ConnID, env core.Envelope) {
	var value *float64
	if err := json.Unmarshal(env.Data, &value); err != nil || value == nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad vote payload")
		return
	}
	ctl.Orch.Vote(ctx, id, *value)
}
