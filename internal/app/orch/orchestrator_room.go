package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) createRoom(sid core.SessionID, conn core.SignalConnection, c protocol.CreateRoom) error {
	if !o.Limiter.Allow(sid) {
		return fmt.Errorf("create room: %w", domain.ErrRateLimited)
	}
	details, err := o.Registry.CreateRoom(sid, conn, c.MaxPlayers)
	if err != nil {
		return err
	}
	o.reply(sid, conn, protocol.TypeRoomCreated, protocol.RoomCreated{RoomDetails: details, PlayerID: details.HostID})
	return nil
}

func (o *Orchestrator) joinRoom(ctx context.Context, sid core.SessionID, conn core.SignalConnection, c protocol.JoinRoom) error {
	if !o.Limiter.Allow(sid) {
		return fmt.Errorf("join room: %w", domain.ErrRateLimited)
	}
	res, err := o.Registry.JoinRoom(sid, conn, domain.NormalizeRoomID(c.RoomID))
	if err != nil {
		return err
	}
	o.reply(sid, conn, protocol.TypeJoinedRoom, protocol.JoinedRoom{RoomDetails: res.Details, PlayerID: res.Slot})
	o.broadcast(ctx, res.Details.RoomID, res.Slot, protocol.TypePlayerJoined, protocol.PlayerJoined{RoomDetails: res.Details, PlayerID: res.Slot})
	if res.Started {
		o.announceStart(ctx, res.Match)
	}
	return nil
}

func (o *Orchestrator) startGame(ctx context.Context, sid core.SessionID) error {
	res, err := o.Registry.StartGame(sid)
	if err != nil {
		return err
	}
	o.announceStart(ctx, res.Match)
	return nil
}

// OnDisconnect removes sid from its room. Leaving a running game ends it for
// everyone still seated.
func (o *Orchestrator) OnDisconnect(ctx context.Context, sid core.SessionID) {
	o.Limiter.Forget(sid)
	dep, ok := o.Registry.RemoveConnection(sid)
	if !ok {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(dep.RoomID)).Int("slot", dep.Slot).Bool("aborted", dep.Aborted).Msg("disconnected from room")

	cancelled := false
	if dep.Aborted && dep.Match.Session != nil {
		snap := dep.Match.Session.Snapshot()
		if snap.Winner == game.NoWinner {
			cancelled = true
			o.persist(ctx, dep.Match, snap, true)
		}
	}
	if dep.RoomDeleted {
		return
	}

	leaver := domain.Member{RoomID: dep.RoomID, Slot: dep.Slot}
	o.broadcast(ctx, dep.RoomID, core.NoSlot, protocol.TypePlayerLeft, protocol.PlayerLeft{RoomDetails: dep.Details, PlayerID: dep.Slot})
	if cancelled {
		o.broadcast(ctx, dep.RoomID, core.NoSlot, protocol.TypeError, protocol.Error{Message: leaver.Label() + " left, game over"})
	}
}

// KickBySlot closes the connection seated in slot and removes it like any
// other disconnect.
func (o *Orchestrator) KickBySlot(ctx context.Context, roomID domain.RoomID, slot int) bool {
	peers, ok := o.Registry.Members(roomID, core.NoSlot)
	if !ok {
		return false
	}
	for _, p := range peers {
		if p.Slot != slot {
			continue
		}
		log.Info().Str("module", "orch").Str("room", string(roomID)).Str("sid", string(p.SID)).Int("slot", slot).Msg("kicked")
		p.Conn.Close()
		o.OnDisconnect(ctx, p.SID)
		return true
	}
	return false
}
