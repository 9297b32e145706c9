// Package game holds the authoritative state of one room's match.
package game

import (
	"fmt"
	"sync"

	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/rules"
)

const (
	DiceUnset    = 0
	DiceGameOver = -1
	NoWinner     = -1
)

type Phase int

const (
	PhaseWaitingRoll Phase = iota
	PhaseWaitingMove
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingRoll:
		return "waiting_roll"
	case PhaseWaitingMove:
		return "waiting_move"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// Snapshot is a deep copy of the session taken under its lock.
type Snapshot struct {
	NumPlayers int
	Turn       int
	Dice       int
	Phase      Phase
	Pieces     [][]rules.Piece
	Winner     int
}

// DiceValue returns the rolled face, if any.
func (s Snapshot) DiceValue() (int, bool) {
	if s.Dice >= 1 && s.Dice <= 6 {
		return s.Dice, true
	}
	return 0, false
}

type RollResult struct {
	Player       int
	Value        int
	Movable      []int
	Destinations []rules.Cell
	// Rolled is the state right after the roll, before an automatic pass.
	Rolled Snapshot
	// Passed is set when no piece could move: the turn moved on, or the
	// player must roll again after a six.
	Passed bool
	Turn   int
}

type MoveResult struct {
	Player       int
	PieceID      int
	Dice         int
	Captured     *rules.Piece
	JustFinished bool
	ExtraTurn    bool
	Winner       int
	Turn         int
}

func (r MoveResult) GameOver() bool { return r.Winner != NoWinner }

type Option func(*Session)

func WithDice(d Dice) Option { return func(s *Session) { s.dice = d } }

func WithBoard(b *rules.Board) Option { return func(s *Session) { s.board = b } }

// Session is safe for concurrent use. Every mutation first checks that the
// caller holds the turn, so callers racing for the same room are rejected
// rather than queued behind each other.
type Session struct {
	mu         sync.Mutex
	board      *rules.Board
	dice       Dice
	numPlayers int
	turn       int
	value      int
	winner     int
	players    [][]rules.Piece
}

func NewSession(numPlayers int, opts ...Option) (*Session, error) {
	if numPlayers < domain.MinPlayers || numPlayers > domain.MaxPlayers {
		return nil, fmt.Errorf("new session: %d players out of range", numPlayers)
	}
	s := &Session{
		board:      rules.Standard(),
		dice:       RandomDice(),
		numPlayers: numPlayers,
		winner:     NoWinner,
		players:    make([][]rules.Piece, numPlayers),
	}
	for i := range s.players {
		s.players[i] = rules.NewPieces(i)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) NumPlayers() int { return s.numPlayers }

func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) Winner() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Roll throws the die for slot. With no legal move a non-six passes the turn
// and a six leaves the player to roll again.
func (s *Session) Roll(slot int) (RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurnLocked(slot); err != nil {
		return RollResult{}, fmt.Errorf("roll: %w", err)
	}
	if s.value != DiceUnset {
		return RollResult{}, fmt.Errorf("roll: already rolled: %w", domain.ErrInvalidPhase)
	}

	v := s.dice.Roll()
	s.value = v
	res := RollResult{
		Player:  slot,
		Value:   v,
		Movable: rules.MovablePieces(s.players[slot], v),
	}
	for _, id := range res.Movable {
		if c, ok := s.board.LegalDestination(s.players[slot][id], v); ok {
			res.Destinations = append(res.Destinations, c)
		}
	}
	res.Rolled = s.snapshotLocked()

	if len(res.Movable) == 0 {
		res.Passed = true
		if v == rules.SpawnRoll {
			s.value = DiceUnset
		} else {
			s.advanceLocked()
		}
	}
	res.Turn = s.turn
	return res, nil
}

// Move applies the rolled value to one of slot's pieces.
func (s *Session) Move(slot, pieceID int) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTurnLocked(slot); err != nil {
		return MoveResult{}, fmt.Errorf("move: %w", err)
	}
	if s.value == DiceUnset {
		return MoveResult{}, fmt.Errorf("move: roll first: %w", domain.ErrInvalidPhase)
	}
	pieces := s.players[slot]
	if pieceID < 0 || pieceID >= len(pieces) {
		return MoveResult{}, fmt.Errorf("move: piece %d: %w", pieceID, domain.ErrPieceNotMovable)
	}
	if _, ok := rules.LegalIndex(pieces[pieceID], s.value); !ok {
		return MoveResult{}, fmt.Errorf("move: piece %d: %w", pieceID, domain.ErrPieceNotMovable)
	}

	dice := s.value
	res := MoveResult{Player: slot, PieceID: pieceID, Dice: dice, Winner: NoWinner}
	res.JustFinished = rules.Advance(&pieces[pieceID], dice)
	if captured, ok := s.board.ApplyCapture(s.players, pieces[pieceID]); ok {
		res.Captured = &captured
	}

	switch {
	case rules.HasWon(pieces):
		s.winner = slot
		s.value = DiceGameOver
		res.Winner = slot
	case dice == rules.SpawnRoll || res.Captured != nil || res.JustFinished:
		s.value = DiceUnset
		res.ExtraTurn = true
	default:
		s.advanceLocked()
	}
	res.Turn = s.turn
	return res, nil
}

// MovablePieces lists slot's pieces that can move with dice.
func (s *Session) MovablePieces(slot, dice int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= s.numPlayers {
		return nil
	}
	return rules.MovablePieces(s.players[slot], dice)
}

// LegalDestination is the cell slot's piece would reach with dice.
func (s *Session) LegalDestination(slot, pieceID, dice int) (rules.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= s.numPlayers || pieceID < 0 || pieceID >= len(s.players[slot]) {
		return rules.Cell{}, false
	}
	return s.board.LegalDestination(s.players[slot][pieceID], dice)
}

func (s *Session) checkTurnLocked(slot int) error {
	if s.value == DiceGameOver {
		return domain.ErrGameOver
	}
	if slot != s.turn {
		return domain.ErrNotYourTurn
	}
	return nil
}

func (s *Session) advanceLocked() {
	s.turn = (s.turn + 1) % s.numPlayers
	s.value = DiceUnset
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		NumPlayers: s.numPlayers,
		Turn:       s.turn,
		Dice:       s.value,
		Winner:     s.winner,
		Pieces:     make([][]rules.Piece, len(s.players)),
	}
	for i, pieces := range s.players {
		snap.Pieces[i] = append([]rules.Piece(nil), pieces...)
	}
	switch s.value {
	case DiceGameOver:
		snap.Phase = PhaseGameOver
	case DiceUnset:
		snap.Phase = PhaseWaitingRoll
	default:
		snap.Phase = PhaseWaitingMove
	}
	return snap
}
