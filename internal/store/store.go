// Package store persists match snapshots for later inspection.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
)

const ModeOnline = "online"

var ErrMatchNotFound = errors.New("match not found")

type PieceState struct {
	PieceID   int  `json:"piece_id"`
	PathIndex int  `json:"path_index"`
	Finished  bool `json:"finished"`
}

// MatchRecord is the stored document of one match.
type MatchRecord struct {
	MatchID        string                  `json:"match_id"`
	RoomID         domain.RoomID           `json:"room_id"`
	NumPlayers     int                     `json:"num_players"`
	Turn           int                     `json:"turn"`
	DiceValue      *int                    `json:"dice_value"`
	Mode           string                  `json:"mode"`
	PiecesState    map[string][]PieceState `json:"pieces_state"`
	IsLoadable     bool                    `json:"is_loadable"`
	WinnerPlayerID *int                    `json:"winner_player_id,omitempty"`
	Cancelled      bool                    `json:"cancelled,omitempty"`
	StartTime      time.Time               `json:"start_time"`
	EndTime        *time.Time              `json:"end_time,omitempty"`
}

// NewMatchRecord captures snap. Online matches cannot be resumed, so the
// record is never loadable.
func NewMatchRecord(matchID string, roomID domain.RoomID, snap game.Snapshot, start time.Time) MatchRecord {
	rec := MatchRecord{
		MatchID:     matchID,
		RoomID:      roomID,
		NumPlayers:  snap.NumPlayers,
		Turn:        snap.Turn,
		Mode:        ModeOnline,
		PiecesState: make(map[string][]PieceState, len(snap.Pieces)),
		StartTime:   start,
	}
	if v, ok := snap.DiceValue(); ok {
		rec.DiceValue = &v
	}
	for owner, pieces := range snap.Pieces {
		states := make([]PieceState, 0, len(pieces))
		for _, p := range pieces {
			states = append(states, PieceState{PieceID: p.ID, PathIndex: p.PathIndex, Finished: p.Finished})
		}
		rec.PiecesState[fmt.Sprintf("player_%d", owner)] = states
	}
	if snap.Winner != game.NoWinner {
		w := snap.Winner
		rec.WinnerPlayerID = &w
	}
	return rec
}

// Finish marks the record as ended at t.
func (r *MatchRecord) Finish(t time.Time, cancelled bool) {
	r.EndTime = &t
	r.Cancelled = cancelled
}

type Store interface {
	Save(ctx context.Context, rec MatchRecord) error
	Load(ctx context.Context, matchID string) (MatchRecord, error)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Save(context.Context, MatchRecord) error { return nil }

func (Nop) Load(_ context.Context, id string) (MatchRecord, error) {
	return MatchRecord{}, fmt.Errorf("load %s: %w", id, ErrMatchNotFound)
}
