// Package orch turns connection events into registry and session calls and
// fans the results out to the room.
package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/Ludo/internal/app"
	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/dkeye/Ludo/internal/store"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *core.Registry
	Policy   app.Policy
	Limiter  *app.RoomRateLimiter
	Store    store.Store
	// StoreTimeout bounds each save; zero means no extra deadline.
	StoreTimeout time.Duration
	Now          func() time.Time
}

var _ core.ConnHandler = (*Orchestrator)(nil)

func (o *Orchestrator) OnConnect(sid core.SessionID, _ core.SignalConnection) {
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("connected")
}

// OnFrame decodes one client frame and dispatches it.
func (o *Orchestrator) OnFrame(ctx context.Context, sid core.SessionID, conn core.SignalConnection, data []byte) {
	cmd, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("bad frame")
		o.reply(sid, conn, protocol.TypeError, protocol.Error{Message: domain.Reason(err)})
		return
	}
	o.Dispatch(ctx, sid, conn, cmd)
}

// Dispatch runs one typed command. Failures are answered to the sender only
// and leave all state untouched.
func (o *Orchestrator) Dispatch(ctx context.Context, sid core.SessionID, conn core.SignalConnection, cmd protocol.Command) {
	var err error
	switch c := cmd.(type) {
	case protocol.CreateRoom:
		err = o.createRoom(sid, conn, c)
	case protocol.JoinRoom:
		err = o.joinRoom(ctx, sid, conn, c)
	case protocol.StartGame:
		err = o.startGame(ctx, sid)
	case protocol.RollDice:
		err = o.rollDice(ctx, sid)
	case protocol.MovePiece:
		err = o.movePiece(ctx, sid, c)
	default:
		err = fmt.Errorf("dispatch %T: %w", cmd, domain.ErrUnknownMessage)
	}
	if err == nil {
		return
	}

	if domain.IsRejection(err) {
		log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("cmd", cmd.Type()).Msg("rejected")
		o.reply(sid, conn, protocol.TypeMoveInvalid, protocol.MoveInvalid{Reason: domain.Reason(err)})
		return
	}
	log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("cmd", cmd.Type()).Msg("request failed")
	o.reply(sid, conn, protocol.TypeError, protocol.Error{Message: domain.Reason(err)})
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) policy() app.Policy {
	if o.Policy != nil {
		return o.Policy
	}
	return app.SimplePolicy{}
}

// reply answers the sender directly. A failed reply is left for the
// connection's own read loop to notice.
func (o *Orchestrator) reply(sid core.SessionID, conn core.SignalConnection, msgType string, payload any) {
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("type", msgType).Msg("encode reply")
		return
	}
	if err := conn.Send(frame); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("type", msgType).Msg("reply failed")
	}
}

// broadcast sends to the current members of roomID except the exclude slot.
func (o *Orchestrator) broadcast(ctx context.Context, roomID domain.RoomID, exclude int, msgType string, payload any) {
	peers, ok := o.Registry.Members(roomID, exclude)
	if !ok {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("type", msgType).Msg("room gone, broadcast skipped")
		return
	}
	frame, err := protocol.Encode(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Str("type", msgType).Msg("encode broadcast")
		return
	}
	o.publish(ctx, roomID, peers, frame)
}

// broadcastState sends a game_state, falling back to the empty snapshot if the
// real one cannot be encoded.
func (o *Orchestrator) broadcastState(ctx context.Context, roomID domain.RoomID, st protocol.GameState) {
	peers, ok := o.Registry.Members(roomID, core.NoSlot)
	if !ok {
		return
	}
	frame, err := protocol.Encode(protocol.TypeGameState, st)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(roomID)).Msg("encode game state")
		if frame, err = protocol.Encode(protocol.TypeGameState, protocol.Serialize(roomID, st.RequiredPlayers, nil)); err != nil {
			return
		}
	}
	o.publish(ctx, roomID, peers, frame)
}

// publish sends outside the registry lock, then reaps the peers that failed.
func (o *Orchestrator) publish(ctx context.Context, roomID domain.RoomID, peers []core.Peer, frame core.Frame) {
	res := core.Broadcast(peers, frame)
	for _, dropped := range res.Dropped {
		switch o.policy().OnSendFailure(roomID, dropped.Peer, dropped.Err) {
		case app.KickMember:
			log.Warn().Err(dropped.Err).Str("module", "orch").Str("room", string(roomID)).Str("sid", string(dropped.SID)).Int("slot", dropped.Slot).Msg("kicking unreachable peer")
			dropped.Conn.Close()
			o.OnDisconnect(ctx, dropped.SID)
		case app.NoAction:
		}
	}
}
