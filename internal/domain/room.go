// Package domain contains entities without logic, just meta-data
package domain

import "strings"

const (
	MinPlayers = 2
	MaxPlayers = 4
)

type RoomID string

// NormalizeRoomID trims and upper-cases a client supplied room code.
func NormalizeRoomID(raw string) RoomID {
	return RoomID(strings.ToUpper(strings.TrimSpace(raw)))
}

// ClampMaxPlayers coerces out-of-range capacities to the two player default.
func ClampMaxPlayers(n int) int {
	if n < MinPlayers || n > MaxPlayers {
		return MinPlayers
	}
	return n
}

// RoomDetails is the lobby view of a room sent with room_created, joined_room,
// player_joined and player_left.
type RoomDetails struct {
	RoomID         RoomID `json:"room_id"`
	HostID         int    `json:"host_id"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
	PlayerIDs      []int  `json:"player_ids"`
	GameStarted    bool   `json:"game_started"`
}

type RoomInfo struct {
	RoomID         RoomID `json:"room_id"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
	GameStarted    bool   `json:"game_started"`
}
