package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game not started")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrRoomNotReady       = errors.New("not enough players")
	ErrAlreadyInRoom      = errors.New("already in a room")
	ErrNotInRoom          = errors.New("not in a room")

	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrPieceNotMovable = errors.New("piece not movable")
	ErrGameOver        = errors.New("game over")

	ErrConnectionLost       = errors.New("connection lost")
	ErrSerializationFailure = errors.New("serialization failure")
	ErrUnknownMessage       = errors.New("unknown message type")
	ErrMalformedFrame       = errors.New("malformed frame")
	ErrRateLimited          = errors.New("too many requests")
)

// IsRejection reports whether err is a gameplay rule violation that is answered
// with move_invalid rather than error.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ErrInvalidPhase),
		errors.Is(err, ErrPieceNotMovable),
		errors.Is(err, ErrGameOver),
		errors.Is(err, ErrNotHost),
		errors.Is(err, ErrRoomNotReady):
		return true
	}
	return false
}

// Reason is the text sent to a client for a failed request.
func Reason(err error) string {
	for _, known := range []error{
		ErrRoomNotFound, ErrRoomFull, ErrGameAlreadyStarted, ErrGameNotStarted,
		ErrNotHost, ErrRoomNotReady, ErrAlreadyInRoom, ErrNotInRoom,
		ErrNotYourTurn, ErrInvalidPhase, ErrPieceNotMovable, ErrGameOver,
		ErrUnknownMessage, ErrMalformedFrame, ErrRateLimited,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
