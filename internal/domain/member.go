package domain

import "fmt"

// Member represents a seat taken in a room.
// No transport or lifecycle logic here.
type Member struct {
	RoomID RoomID
	Slot   int
}

// Label is the 1-based name players see, e.g. "Player 2".
func (m Member) Label() string {
	return fmt.Sprintf("Player %d", m.Slot+1)
}

func (m Member) IsHost() bool { return m.Slot == 0 }
