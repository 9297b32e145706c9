package rules_test

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Ludo/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Paths(t *testing.T) {
	b := rules.NewBoard()

	spawns := []rules.Cell{{1, 6}, {8, 1}, {13, 8}, {6, 13}}
	homes := []rules.Cell{{6, 7}, {7, 6}, {8, 7}, {7, 8}}
	for colour := 0; colour < rules.MaxColours; colour++ {
		path := b.Path(colour)
		require.Len(t, path, rules.PathLen)
		assert.Equal(t, spawns[colour], path[0])
		assert.Equal(t, spawns[colour], b.SpawnCell(colour))
		assert.Equal(t, homes[colour], path[rules.LastIndex])
		assert.True(t, b.IsSafe(spawns[colour]))
	}

	// green leaves the ring at (0,7) and turns into its home lane
	green := b.Path(0)
	assert.Equal(t, rules.Cell{0, 7}, green[rules.RingSize-2])
	assert.Equal(t, rules.Cell{1, 7}, green[rules.RingSize-1])

	assert.Nil(t, b.Path(4))
	assert.False(t, b.IsSafe(rules.Cell{8, 2}))
}

func TestCell_JSON(t *testing.T) {
	b, err := json.Marshal(rules.Cell{3, 9})
	require.NoError(t, err)
	assert.JSONEq(t, `[3,9]`, string(b))

	var c rules.Cell
	require.NoError(t, json.Unmarshal(b, &c))
	assert.Equal(t, rules.Cell{3, 9}, c)
}

func TestLegalIndex(t *testing.T) {
	tests := []struct {
		name  string
		piece rules.Piece
		dice  int
		want  int
		ok    bool
	}{
		{"base needs six", rules.Piece{PathIndex: rules.InBase}, 5, 0, false},
		{"base spawns on six", rules.Piece{PathIndex: rules.InBase}, 6, 0, true},
		{"track advances", rules.Piece{PathIndex: 10}, 4, 14, true},
		{"exact home", rules.Piece{PathIndex: 50}, 6, rules.LastIndex, true},
		{"overshoot", rules.Piece{PathIndex: 53}, 5, 0, false},
		{"finished never moves", rules.Piece{PathIndex: rules.LastIndex, Finished: true}, 1, 0, false},
		{"invalid dice", rules.Piece{PathIndex: 3}, 7, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rules.LegalIndex(tt.piece, tt.dice)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLegalDestination(t *testing.T) {
	b := rules.Standard()

	c, ok := b.LegalDestination(rules.Piece{Owner: 1, PathIndex: rules.InBase}, 6)
	require.True(t, ok)
	assert.Equal(t, b.SpawnCell(1), c)

	c, ok = b.LegalDestination(rules.Piece{Owner: 0, PathIndex: 10}, 4)
	require.True(t, ok)
	assert.Equal(t, rules.Cell{8, 2}, c)

	_, ok = b.LegalDestination(rules.Piece{Owner: 0, PathIndex: rules.InBase}, 3)
	assert.False(t, ok)
}

func TestMovablePieces(t *testing.T) {
	pieces := rules.NewPieces(0)
	assert.Empty(t, rules.MovablePieces(pieces, 3))
	assert.Equal(t, []int{0, 1, 2, 3}, rules.MovablePieces(pieces, 6))

	pieces[1].PathIndex = 0
	pieces[2].PathIndex = rules.LastIndex
	pieces[2].Finished = true
	pieces[3].PathIndex = 54
	assert.Equal(t, []int{1}, rules.MovablePieces(pieces, 3))
	assert.Equal(t, []int{0, 1}, rules.MovablePieces(pieces, 6))
}

func TestAdvance(t *testing.T) {
	p := rules.Piece{PathIndex: rules.InBase}
	assert.False(t, rules.Advance(&p, 6))
	assert.Equal(t, 0, p.PathIndex)

	p.PathIndex = 52
	assert.True(t, rules.Advance(&p, 4))
	assert.Equal(t, rules.LastIndex, p.PathIndex)
	assert.True(t, p.Finished)

	q := rules.Piece{PathIndex: 55}
	assert.False(t, rules.Advance(&q, 3))
	assert.Equal(t, 55, q.PathIndex)
}

func players(n int) [][]rules.Piece {
	out := make([][]rules.Piece, n)
	for i := range out {
		out[i] = rules.NewPieces(i)
	}
	return out
}

// Green index 14 and blue index 1 are both (8,2); green index 13 is blue's spawn.
func TestApplyCapture(t *testing.T) {
	b := rules.Standard()

	t.Run("lone opponent is captured", func(t *testing.T) {
		ps := players(2)
		ps[1][2].PathIndex = 1
		ps[0][0].PathIndex = 14

		captured, ok := b.ApplyCapture(ps, ps[0][0])
		require.True(t, ok)
		assert.Equal(t, 1, captured.Owner)
		assert.Equal(t, 2, captured.ID)
		assert.Equal(t, rules.InBase, ps[1][2].PathIndex)
		assert.False(t, ps[1][2].Finished)
	})

	t.Run("safe cell never captures", func(t *testing.T) {
		ps := players(2)
		ps[1][0].PathIndex = 0
		ps[0][0].PathIndex = 13

		_, ok := b.ApplyCapture(ps, ps[0][0])
		assert.False(t, ok)
		assert.Equal(t, 0, ps[1][0].PathIndex)
	})

	t.Run("block of two is not captured", func(t *testing.T) {
		ps := players(2)
		ps[1][0].PathIndex = 1
		ps[1][1].PathIndex = 1
		ps[0][0].PathIndex = 14

		_, ok := b.ApplyCapture(ps, ps[0][0])
		assert.False(t, ok)
		assert.Equal(t, 1, ps[1][0].PathIndex)
		assert.Equal(t, 1, ps[1][1].PathIndex)
	})

	t.Run("mixed colours also block", func(t *testing.T) {
		ps := players(3)
		ps[1][0].PathIndex = 1
		ps[2][0].PathIndex = 40
		ps[0][0].PathIndex = 14

		_, ok := b.ApplyCapture(ps, ps[0][0])
		assert.False(t, ok)
	})

	t.Run("own pieces are ignored", func(t *testing.T) {
		ps := players(2)
		ps[0][1].PathIndex = 14
		ps[0][0].PathIndex = 14

		_, ok := b.ApplyCapture(ps, ps[0][0])
		assert.False(t, ok)
		assert.Equal(t, 14, ps[0][1].PathIndex)
	})

	t.Run("piece in base captures nothing", func(t *testing.T) {
		ps := players(2)
		_, ok := b.ApplyCapture(ps, ps[0][0])
		assert.False(t, ok)
	})
}

func TestHasWon(t *testing.T) {
	pieces := rules.NewPieces(0)
	assert.False(t, rules.HasWon(pieces))
	for i := range pieces {
		pieces[i].PathIndex = rules.LastIndex
		pieces[i].Finished = true
	}
	assert.True(t, rules.HasWon(pieces))
	assert.False(t, rules.HasWon(nil))
}
