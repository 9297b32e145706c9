// Package protocol defines the newline-delimited JSON wire format shared by
// every transport.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Ludo/internal/domain"
)

// Client message types.
const (
	TypeCreateRoom = "create_room"
	TypeJoinRoom   = "join_room"
	TypeStartGame  = "start_game"
	TypeRollDice   = "roll_dice"
	TypeMovePiece  = "move_piece"
)

// Envelope is the outer shape of every frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command is a decoded client request. The set is closed: only the types in
// this file implement it.
type Command interface {
	Type() string
	command()
}

type CreateRoom struct {
	MaxPlayers int `json:"max_players"`
}

type JoinRoom struct {
	RoomID string `json:"room_id"`
}

type StartGame struct{}

type RollDice struct{}

type MovePiece struct {
	PieceID int `json:"piece_id"`
}

func (CreateRoom) Type() string { return TypeCreateRoom }
func (JoinRoom) Type() string   { return TypeJoinRoom }
func (StartGame) Type() string  { return TypeStartGame }
func (RollDice) Type() string   { return TypeRollDice }
func (MovePiece) Type() string  { return TypeMovePiece }

func (CreateRoom) command() {}
func (JoinRoom) command()   {}
func (StartGame) command()  {}
func (RollDice) command()   {}
func (MovePiece) command()  {}

// Decode parses one frame into a typed command.
func Decode(frame []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode: %v: %w", err, domain.ErrMalformedFrame)
	}

	switch env.Type {
	case TypeCreateRoom:
		var p CreateRoom
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TypeJoinRoom:
		var p JoinRoom
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.RoomID == "" {
			return nil, fmt.Errorf("decode %s: missing room_id: %w", env.Type, domain.ErrMalformedFrame)
		}
		return p, nil
	case TypeStartGame:
		return StartGame{}, nil
	case TypeRollDice:
		return RollDice{}, nil
	case TypeMovePiece:
		var p struct {
			PieceID *int `json:"piece_id"`
		}
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		if p.PieceID == nil {
			return nil, fmt.Errorf("decode %s: missing piece_id: %w", env.Type, domain.ErrMalformedFrame)
		}
		return MovePiece{PieceID: *p.PieceID}, nil
	case "":
		return nil, fmt.Errorf("decode: missing type: %w", domain.ErrMalformedFrame)
	}
	return nil, fmt.Errorf("decode %q: %w", env.Type, domain.ErrUnknownMessage)
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, domain.ErrMalformedFrame)
	}
	return nil
}

// EncodeCommand builds a client frame; used by clients and tests.
func EncodeCommand(cmd Command) ([]byte, error) {
	return encode(cmd.Type(), cmd)
}

func encode(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %v: %w", msgType, err, domain.ErrSerializationFailure)
	}
	b, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %v: %w", msgType, err, domain.ErrSerializationFailure)
	}
	return b, nil
}
