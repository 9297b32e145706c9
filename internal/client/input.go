// Package client is a line-oriented terminal client for the game server.
package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/Ludo/internal/protocol"
)

var ErrUsage = errors.New("commands: create <players> | join <code> | start | roll | move <piece> | quit")

// ParseCommand turns one typed line into a protocol command.
func ParseCommand(line string) (protocol.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrUsage
	}
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("%s: %w", fields[0], ErrUsage)
		}
		return fields[1], nil
	}

	switch strings.ToLower(fields[0]) {
	case "create":
		n := 2
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("create: %q is not a number", fields[1])
			}
			n = v
		}
		return protocol.CreateRoom{MaxPlayers: n}, nil
	case "join":
		code, err := arg()
		if err != nil {
			return nil, err
		}
		return protocol.JoinRoom{RoomID: code}, nil
	case "start":
		return protocol.StartGame{}, nil
	case "roll":
		return protocol.RollDice{}, nil
	case "move":
		raw, err := arg()
		if err != nil {
			return nil, err
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("move: %q is not a piece id", raw)
		}
		return protocol.MovePiece{PieceID: id}, nil
	}
	return nil, fmt.Errorf("%q: %w", fields[0], ErrUsage)
}
