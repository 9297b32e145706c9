package orch

import (
	"context"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/dkeye/Ludo/internal/store"
	"github.com/rs/zerolog/log"
)

// persist saves the match, even while the server shuts down. Store errors
// are logged and never reach players.
func (o *Orchestrator) persist(ctx context.Context, m core.Match, snap game.Snapshot, ended bool) {
	if o.Store == nil || m.ID == "" {
		return
	}
	rec := store.NewMatchRecord(m.ID, m.RoomID, snap, m.StartedAt)
	if ended {
		rec.Finish(o.now(), snap.Winner == game.NoWinner)
	}

	ctx = context.WithoutCancel(ctx)
	if o.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.StoreTimeout)
		defer cancel()
	}
	if err := o.Store.Save(ctx, rec); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(m.RoomID)).Str("match", m.ID).Msg("save match")
	}
}
