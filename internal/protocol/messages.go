package protocol

import (
	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/dkeye/Ludo/internal/rules"
)

// Server message types.
const (
	TypeRoomCreated  = "room_created"
	TypeJoinedRoom   = "joined_room"
	TypePlayerJoined = "player_joined"
	TypePlayerLeft   = "player_left"
	TypeGameState    = "game_state"
	TypeYourTurn     = "your_turn"
	TypeMoveInvalid  = "move_invalid"
	TypeGameOver     = "game_over"
	TypeError        = "error"
)

type RoomCreated struct {
	domain.RoomDetails
	PlayerID int `json:"player_id"`
}

type JoinedRoom struct {
	domain.RoomDetails
	PlayerID int `json:"player_id"`
}

type PlayerJoined struct {
	domain.RoomDetails
	PlayerID int `json:"player_id"`
}

type PlayerLeft struct {
	domain.RoomDetails
	PlayerID int `json:"player_id"`
}

// GameState is the wire snapshot of a room's game.
type GameState struct {
	RoomID          domain.RoomID   `json:"room_id"`
	NumPlayers      int             `json:"num_players"`
	Turn            int             `json:"turn"`
	DiceValue       *int            `json:"dice_value"`
	PlayersPieces   [][]rules.Piece `json:"players_pieces"`
	RequiredPlayers int             `json:"required_players"`
	GameStarted     bool            `json:"game_started"`
	Winner          *int            `json:"winner,omitempty"`

	MovablePieces     []int        `json:"movable_pieces,omitempty"`
	ValidDestinations []rules.Cell `json:"valid_destinations,omitempty"`
}

type YourTurn struct {
	PlayerID int `json:"player_id"`
}

type MoveInvalid struct {
	Reason string `json:"reason"`
}

type GameOver struct {
	WinnerID int `json:"winner_id"`
}

type Error struct {
	Message string `json:"message"`
}

// Serialize converts a session snapshot into its wire form. A nil snapshot
// yields the pre-game shape: no pieces and turn -1.
func Serialize(roomID domain.RoomID, requiredPlayers int, snap *game.Snapshot) GameState {
	st := GameState{
		RoomID:          roomID,
		RequiredPlayers: requiredPlayers,
		Turn:            -1,
		PlayersPieces:   [][]rules.Piece{},
	}
	if snap == nil {
		return st
	}
	st.NumPlayers = snap.NumPlayers
	st.Turn = snap.Turn
	st.GameStarted = true
	if v, ok := snap.DiceValue(); ok {
		st.DiceValue = &v
	}
	if snap.Winner != game.NoWinner {
		w := snap.Winner
		st.Winner = &w
	}
	st.PlayersPieces = make([][]rules.Piece, len(snap.Pieces))
	for i, pieces := range snap.Pieces {
		st.PlayersPieces[i] = append([]rules.Piece{}, pieces...)
	}
	return st
}

// SerializeRoll is the state right after a roll, with the moves it allows.
func SerializeRoll(roomID domain.RoomID, requiredPlayers int, res game.RollResult) GameState {
	st := Serialize(roomID, requiredPlayers, &res.Rolled)
	st.MovablePieces = res.Movable
	st.ValidDestinations = res.Destinations
	return st
}

// Encode builds a server frame.
func Encode(msgType string, payload any) (core.Frame, error) {
	b, err := encode(msgType, payload)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
