// Package rules is the movement rules engine: board topology, legal
// destinations, captures and win detection. Everything here is pure; callers
// own synchronization.
package rules

import "encoding/json"

const (
	RingSize        = 52
	HomeLaneSize    = 6
	PathLen         = RingSize - 1 + HomeLaneSize
	LastIndex       = PathLen - 1
	PiecesPerPlayer = 4
	MaxColours      = 4
	SpawnRoll       = 6
	InBase          = -1
)

// Cell is a square on the 15x15 board grid.
type Cell struct {
	X, Y int
}

// MarshalJSON encodes a cell as [x, y].
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var xy [2]int
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	c.X, c.Y = xy[0], xy[1]
	return nil
}

// ring is the shared outer track, clockwise.
var ring = [RingSize]Cell{
	{6, 5}, {6, 4}, {6, 3}, {6, 2}, {6, 1}, {6, 0},
	{7, 0},
	{8, 0}, {8, 1}, {8, 2}, {8, 3}, {8, 4}, {8, 5},
	{9, 6}, {10, 6}, {11, 6}, {12, 6}, {13, 6}, {14, 6},
	{14, 7},
	{14, 8}, {13, 8}, {12, 8}, {11, 8}, {10, 8}, {9, 8},
	{8, 9}, {8, 10}, {8, 11}, {8, 12}, {8, 13}, {8, 14},
	{7, 14},
	{6, 14}, {6, 13}, {6, 12}, {6, 11}, {6, 10}, {6, 9},
	{5, 8}, {4, 8}, {3, 8}, {2, 8}, {1, 8}, {0, 8},
	{0, 7},
	{0, 6}, {1, 6}, {2, 6}, {3, 6}, {4, 6}, {5, 6},
}

// ringOffset is where each colour enters the ring: green, blue, yellow, red.
var ringOffset = [MaxColours]int{47, 8, 21, 34}

var homeLanes = [MaxColours][HomeLaneSize]Cell{
	{{1, 7}, {2, 7}, {3, 7}, {4, 7}, {5, 7}, {6, 7}},
	{{7, 1}, {7, 2}, {7, 3}, {7, 4}, {7, 5}, {7, 6}},
	{{13, 7}, {12, 7}, {11, 7}, {10, 7}, {9, 7}, {8, 7}},
	{{7, 13}, {7, 12}, {7, 11}, {7, 10}, {7, 9}, {7, 8}},
}

// Board holds the per-colour paths. It is immutable after construction and
// safe to share between sessions.
type Board struct {
	paths [MaxColours][PathLen]Cell
	safe  map[Cell]struct{}
}

var standard = NewBoard()

// Standard returns the shared four-colour board.
func Standard() *Board { return standard }

func NewBoard() *Board {
	b := &Board{safe: make(map[Cell]struct{}, MaxColours)}
	for colour := 0; colour < MaxColours; colour++ {
		off := ringOffset[colour]
		for i := 0; i < RingSize-1; i++ {
			b.paths[colour][i] = ring[(off+i)%RingSize]
		}
		for i, c := range homeLanes[colour] {
			b.paths[colour][RingSize-1+i] = c
		}
		b.safe[b.paths[colour][0]] = struct{}{}
	}
	return b
}

// Path returns a copy of the full path walked by the given colour.
func (b *Board) Path(owner int) []Cell {
	if owner < 0 || owner >= MaxColours {
		return nil
	}
	out := make([]Cell, PathLen)
	copy(out, b.paths[owner][:])
	return out
}

// SpawnCell is the first cell of the owner's path.
func (b *Board) SpawnCell(owner int) Cell { return b.paths[owner][0] }

// IsSafe reports whether c is a spawn cell, where captures never happen.
func (b *Board) IsSafe(c Cell) bool {
	_, ok := b.safe[c]
	return ok
}

// CellAt maps a path index of the owner's path to a board cell.
func (b *Board) CellAt(owner, pathIndex int) (Cell, bool) {
	if owner < 0 || owner >= MaxColours || pathIndex < 0 || pathIndex >= PathLen {
		return Cell{}, false
	}
	return b.paths[owner][pathIndex], true
}
