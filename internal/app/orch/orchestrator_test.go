package orch_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Ludo/internal/app"
	"github.com/dkeye/Ludo/internal/app/orch"
	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/dkeye/Ludo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func (c *fakeConn) Send(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return domain.ErrConnectionLost
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) setFail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, env := range c.envelopes(t) {
		out = append(out, env.Type)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// last decodes the payload of the most recent message of msgType.
func last[T any](t *testing.T, c *fakeConn, msgType string) T {
	t.Helper()
	envs := c.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == msgType {
			var v T
			require.NoError(t, json.Unmarshal(envs[i].Payload, &v))
			return v
		}
	}
	t.Fatalf("no %s message in %v", msgType, c.types(t))
	var zero T
	return zero
}

type recordingStore struct {
	mu      sync.Mutex
	records []store.MatchRecord
}

func (s *recordingStore) Save(_ context.Context, rec store.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingStore) Load(_ context.Context, id string) (store.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].MatchID == id {
			return s.records[i], nil
		}
	}
	return store.MatchRecord{}, store.ErrMatchNotFound
}

func (s *recordingStore) latest(t *testing.T) store.MatchRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.records)
	return s.records[len(s.records)-1]
}

type harness struct {
	orch  *orch.Orchestrator
	store *recordingStore
	ctx   context.Context
}

func newHarness(autoStart bool, faces ...int) *harness {
	reg := core.NewRegistry(
		core.WithAutoStart(autoStart),
		core.WithSessionOptions(game.WithDice(game.NewScriptedDice(faces...))),
	)
	st := &recordingStore{}
	return &harness{
		orch: &orch.Orchestrator{
			Registry:     reg,
			Policy:       app.SimplePolicy{},
			Store:        st,
			StoreTimeout: time.Second,
			Now:          func() time.Time { return time.Unix(1700000000, 0) },
		},
		store: st,
		ctx:   context.Background(),
	}
}

func (h *harness) send(sid core.SessionID, conn *fakeConn, frame string) {
	h.orch.OnFrame(h.ctx, sid, conn, []byte(frame))
}

// room creates a room hosted by conns[0] and joins the others.
func (h *harness) room(t *testing.T, conns ...*fakeConn) domain.RoomID {
	t.Helper()
	h.send("p0", conns[0], `{"type":"create_room","payload":{"max_players":`+itoa(len(conns))+`}}`)
	created := last[protocol.RoomCreated](t, conns[0], protocol.TypeRoomCreated)
	for i := 1; i < len(conns); i++ {
		h.send(core.SessionID("p"+itoa(i)), conns[i], `{"type":"join_room","payload":{"room_id":"`+string(created.RoomID)+`"}}`)
	}
	return created.RoomID
}

func itoa(i int) string { return string(rune('0' + i)) }

func TestOrchestrator_TwoPlayerGame(t *testing.T) {
	h := newHarness(true, 6, 3, 2)
	a, b := &fakeConn{}, &fakeConn{}

	h.send("p0", a, `{"type":"create_room","payload":{"max_players":2}}`)
	require.Equal(t, []string{protocol.TypeRoomCreated}, a.types(t))
	created := last[protocol.RoomCreated](t, a, protocol.TypeRoomCreated)
	assert.Equal(t, 0, created.PlayerID)
	assert.Equal(t, 2, created.MaxPlayers)

	h.send("p1", b, `{"type":"join_room","payload":{"room_id":"`+string(created.RoomID)+`"}}`)
	assert.Equal(t, []string{protocol.TypeJoinedRoom, protocol.TypeGameState, protocol.TypeYourTurn}, b.types(t))
	assert.Equal(t, []string{protocol.TypeRoomCreated, protocol.TypePlayerJoined, protocol.TypeGameState, protocol.TypeYourTurn}, a.types(t))

	joined := last[protocol.JoinedRoom](t, b, protocol.TypeJoinedRoom)
	assert.Equal(t, 1, joined.PlayerID)
	assert.Equal(t, []int{0, 1}, joined.PlayerIDs)
	st := last[protocol.GameState](t, b, protocol.TypeGameState)
	assert.True(t, st.GameStarted)
	assert.Equal(t, 0, st.Turn)
	assert.Nil(t, st.DiceValue)
	assert.Equal(t, 0, last[protocol.YourTurn](t, a, protocol.TypeYourTurn).PlayerID)

	started := h.store.latest(t)
	assert.Equal(t, created.RoomID, started.RoomID)
	assert.Nil(t, started.EndTime)

	a.reset()
	b.reset()

	h.send("p1", b, `{"type":"roll_dice","payload":{}}`)
	assert.Equal(t, []string{protocol.TypeMoveInvalid}, b.types(t))
	assert.Equal(t, "not your turn", last[protocol.MoveInvalid](t, b, protocol.TypeMoveInvalid).Reason)
	assert.Empty(t, a.types(t))
	b.reset()

	h.send("p0", a, `{"type":"roll_dice","payload":{}}`)
	st = last[protocol.GameState](t, b, protocol.TypeGameState)
	require.NotNil(t, st.DiceValue)
	assert.Equal(t, 6, *st.DiceValue)
	assert.Equal(t, []int{0, 1, 2, 3}, st.MovablePieces)
	assert.Len(t, st.ValidDestinations, 4)

	h.send("p0", a, `{"type":"move_piece","payload":{"piece_id":0}}`)
	assert.Equal(t, 0, last[protocol.YourTurn](t, b, protocol.TypeYourTurn).PlayerID)
	st = last[protocol.GameState](t, a, protocol.TypeGameState)
	assert.Equal(t, 0, st.PlayersPieces[0][0].PathIndex)
	assert.Nil(t, st.DiceValue)

	h.send("p0", a, `{"type":"roll_dice","payload":{}}`)
	h.send("p0", a, `{"type":"move_piece","payload":{"piece_id":0}}`)
	assert.Equal(t, 1, last[protocol.YourTurn](t, b, protocol.TypeYourTurn).PlayerID)
	st = last[protocol.GameState](t, b, protocol.TypeGameState)
	assert.Equal(t, 3, st.PlayersPieces[0][0].PathIndex)
	assert.Equal(t, 1, st.Turn)

	rec := h.store.latest(t)
	assert.Equal(t, 3, rec.PiecesState["player_0"][0].PathIndex)
	assert.Equal(t, 1, rec.Turn)

	// Player 1 rolls a 2 with everything in base: the turn passes back.
	a.reset()
	h.send("p1", b, `{"type":"roll_dice","payload":{}}`)
	assert.Equal(t, []string{protocol.TypeGameState, protocol.TypeGameState, protocol.TypeYourTurn}, a.types(t))
	envs := a.envelopes(t)
	var rolled, after protocol.GameState
	require.NoError(t, json.Unmarshal(envs[0].Payload, &rolled))
	require.NoError(t, json.Unmarshal(envs[1].Payload, &after))
	require.NotNil(t, rolled.DiceValue)
	assert.Equal(t, 2, *rolled.DiceValue)
	assert.Empty(t, rolled.MovablePieces)
	assert.Nil(t, after.DiceValue)
	assert.Equal(t, 0, after.Turn)
	assert.Equal(t, 0, last[protocol.YourTurn](t, a, protocol.TypeYourTurn).PlayerID)
}

func TestOrchestrator_ManualStart(t *testing.T) {
	h := newHarness(false, 1)
	a, b := &fakeConn{}, &fakeConn{}
	h.room(t, a, b)
	assert.NotContains(t, b.types(t), protocol.TypeGameState)

	h.send("p1", b, `{"type":"start_game","payload":{}}`)
	assert.Equal(t, "only the host can start the game", last[protocol.MoveInvalid](t, b, protocol.TypeMoveInvalid).Reason)

	h.send("p0", a, `{"type":"start_game","payload":{}}`)
	assert.True(t, last[protocol.GameState](t, b, protocol.TypeGameState).GameStarted)
	assert.Equal(t, 0, last[protocol.YourTurn](t, b, protocol.TypeYourTurn).PlayerID)

	h.send("p0", a, `{"type":"start_game","payload":{}}`)
	assert.Equal(t, "game already started", last[protocol.Error](t, a, protocol.TypeError).Message)
}

func TestOrchestrator_DisconnectMidGame(t *testing.T) {
	h := newHarness(true, 4)
	a, b := &fakeConn{}, &fakeConn{}
	roomID := h.room(t, a, b)
	a.reset()

	h.orch.OnDisconnect(h.ctx, "p1")
	assert.Equal(t, []string{protocol.TypePlayerLeft, protocol.TypeError}, a.types(t))
	left := last[protocol.PlayerLeft](t, a, protocol.TypePlayerLeft)
	assert.Equal(t, 1, left.PlayerID)
	assert.Equal(t, 1, left.CurrentPlayers)
	assert.False(t, left.GameStarted)
	assert.Equal(t, "Player 2 left, game over", last[protocol.Error](t, a, protocol.TypeError).Message)

	rec := h.store.latest(t)
	assert.True(t, rec.Cancelled)
	require.NotNil(t, rec.EndTime)
	assert.Nil(t, rec.WinnerPlayerID)

	a.reset()
	h.send("p0", a, `{"type":"roll_dice","payload":{}}`)
	assert.Equal(t, "game not started", last[protocol.Error](t, a, protocol.TypeError).Message)

	h.orch.OnDisconnect(h.ctx, "p0")
	_, ok := h.orch.Registry.Details(roomID)
	assert.False(t, ok)
	assert.Zero(t, h.orch.Registry.Len())

	h.orch.OnDisconnect(h.ctx, "p0")
}

func TestOrchestrator_DisconnectInLobby(t *testing.T) {
	h := newHarness(false)
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.room(t, a, b, c)
	a.reset()
	c.reset()

	h.orch.OnDisconnect(h.ctx, "p1")
	assert.Equal(t, []string{protocol.TypePlayerLeft}, a.types(t))
	assert.Equal(t, []string{protocol.TypePlayerLeft}, c.types(t))
	assert.Equal(t, []int{0, 2}, last[protocol.PlayerLeft](t, c, protocol.TypePlayerLeft).PlayerIDs)
}

// One unreachable peer does not stop the others from receiving, and is
// reaped from the room afterwards.
func TestOrchestrator_BroadcastReapsDeadPeer(t *testing.T) {
	h := newHarness(false, 3)
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	roomID := h.room(t, a, b, c)
	a.reset()
	b.reset()
	c.setFail()

	h.send("p0", a, `{"type":"start_game","payload":{}}`)

	for _, conn := range []*fakeConn{a, b} {
		types := conn.types(t)
		assert.Contains(t, types, protocol.TypeGameState)
		assert.Contains(t, types, protocol.TypePlayerLeft)
		assert.Equal(t, "Player 3 left, game over", last[protocol.Error](t, conn, protocol.TypeError).Message)
	}
	assert.True(t, c.isClosed())
	assert.Equal(t, core.StateConnected, h.orch.Registry.StateOf("p2"))

	details, ok := h.orch.Registry.Details(roomID)
	require.True(t, ok)
	assert.Equal(t, 2, details.CurrentPlayers)
	assert.False(t, details.GameStarted)
}

func TestOrchestrator_BadRequests(t *testing.T) {
	h := newHarness(true)
	a := &fakeConn{}

	tests := []struct {
		name  string
		frame string
		typ   string
		text  string
	}{
		{name: "not json", frame: `{"type":`, typ: protocol.TypeError, text: "malformed frame"},
		{name: "unknown type", frame: `{"type":"chat","payload":{}}`, typ: protocol.TypeError, text: "unknown message type"},
		{name: "roll outside room", frame: `{"type":"roll_dice","payload":{}}`, typ: protocol.TypeError, text: "not in a room"},
		{name: "start outside room", frame: `{"type":"start_game","payload":{}}`, typ: protocol.TypeError, text: "not in a room"},
		{name: "join unknown room", frame: `{"type":"join_room","payload":{"room_id":"none"}}`, typ: protocol.TypeError, text: "room not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.reset()
			h.send("p0", a, tt.frame)
			envs := a.envelopes(t)
			require.Len(t, envs, 1)
			assert.Equal(t, tt.typ, envs[0].Type)
			assert.Equal(t, tt.text, last[protocol.Error](t, a, protocol.TypeError).Message)
		})
	}
	assert.Zero(t, h.orch.Registry.Len())
}

func TestOrchestrator_RoomFullAndStarted(t *testing.T) {
	h := newHarness(false)
	a, b, late := &fakeConn{}, &fakeConn{}, &fakeConn{}
	roomID := h.room(t, a, b)

	h.send("late", late, `{"type":"join_room","payload":{"room_id":"`+string(roomID)+`"}}`)
	assert.Equal(t, "room is full", last[protocol.Error](t, late, protocol.TypeError).Message)

	h.send("p0", a, `{"type":"start_game","payload":{}}`)
	h.orch.OnDisconnect(h.ctx, "p1")
	late.reset()
	h.send("late", late, `{"type":"join_room","payload":{"room_id":"`+string(roomID)+`"}}`)
	assert.Equal(t, 1, last[protocol.JoinedRoom](t, late, protocol.TypeJoinedRoom).PlayerID)
}

func TestOrchestrator_RateLimit(t *testing.T) {
	h := newHarness(true)
	h.orch.Limiter = app.NewRoomRateLimiter(1, time.Minute)
	a := &fakeConn{}

	h.send("p0", a, `{"type":"join_room","payload":{"room_id":"ZZZZ"}}`)
	assert.Equal(t, "room not found", last[protocol.Error](t, a, protocol.TypeError).Message)
	h.send("p0", a, `{"type":"join_room","payload":{"room_id":"ZZZZ"}}`)
	assert.Equal(t, "too many requests", last[protocol.Error](t, a, protocol.TypeError).Message)

	h.orch.OnDisconnect(h.ctx, "p0")
	h.send("p0", a, `{"type":"create_room","payload":{"max_players":2}}`)
	assert.Contains(t, a.types(t), protocol.TypeRoomCreated)
}
