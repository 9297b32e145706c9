package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/rs/zerolog/log"
)

// announceStart tells the room a game began and whose turn it is.
func (o *Orchestrator) announceStart(ctx context.Context, m core.Match) {
	snap := m.Session.Snapshot()
	o.persist(ctx, m, snap, false)
	o.broadcastState(ctx, m.RoomID, protocol.Serialize(m.RoomID, m.MaxPlayers, &snap))
	o.broadcast(ctx, m.RoomID, core.NoSlot, protocol.TypeYourTurn, protocol.YourTurn{PlayerID: snap.Turn})
}

// seatedGame resolves the caller's slot and running match.
func (o *Orchestrator) seatedGame(sid core.SessionID) (core.Match, int, error) {
	roomID, slot, ok := o.Registry.Seat(sid)
	if !ok {
		return core.Match{}, 0, domain.ErrNotInRoom
	}
	m, err := o.Registry.Game(roomID)
	if err != nil {
		return core.Match{}, 0, err
	}
	return m, slot, nil
}

func (o *Orchestrator) rollDice(ctx context.Context, sid core.SessionID) error {
	m, slot, err := o.seatedGame(sid)
	if err != nil {
		return fmt.Errorf("roll dice: %w", err)
	}
	res, err := m.Session.Roll(slot)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "orch").Str("room", string(m.RoomID)).Int("slot", slot).Int("dice", res.Value).Ints("movable", res.Movable).Msg("rolled")

	o.broadcastState(ctx, m.RoomID, protocol.SerializeRoll(m.RoomID, m.MaxPlayers, res))
	if res.Passed {
		snap := m.Session.Snapshot()
		o.broadcastState(ctx, m.RoomID, protocol.Serialize(m.RoomID, m.MaxPlayers, &snap))
		o.broadcast(ctx, m.RoomID, core.NoSlot, protocol.TypeYourTurn, protocol.YourTurn{PlayerID: res.Turn})
	}
	return nil
}

func (o *Orchestrator) movePiece(ctx context.Context, sid core.SessionID, c protocol.MovePiece) error {
	m, slot, err := o.seatedGame(sid)
	if err != nil {
		return fmt.Errorf("move piece: %w", err)
	}
	res, err := m.Session.Move(slot, c.PieceID)
	if err != nil {
		return err
	}
	ev := log.Debug().Str("module", "orch").Str("room", string(m.RoomID)).Int("slot", slot).Int("piece", c.PieceID).Int("dice", res.Dice).Bool("extra_turn", res.ExtraTurn)
	if res.Captured != nil {
		ev = ev.Int("captured_owner", res.Captured.Owner).Int("captured_piece", res.Captured.ID)
	}
	ev.Msg("moved")

	snap := m.Session.Snapshot()
	o.persist(ctx, m, snap, res.GameOver())
	o.broadcastState(ctx, m.RoomID, protocol.Serialize(m.RoomID, m.MaxPlayers, &snap))
	if res.GameOver() {
		log.Info().Str("module", "orch").Str("room", string(m.RoomID)).Str("match", m.ID).Int("winner", res.Winner).Msg("game over")
		o.broadcast(ctx, m.RoomID, core.NoSlot, protocol.TypeGameOver, protocol.GameOver{WinnerID: res.Winner})
		return nil
	}
	o.broadcast(ctx, m.RoomID, core.NoSlot, protocol.TypeYourTurn, protocol.YourTurn{PlayerID: res.Turn})
	return nil
}
