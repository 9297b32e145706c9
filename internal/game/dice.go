package game

import (
	"math/rand/v2"
	"sync"
)

// Dice produces die faces in [1,6].
type Dice interface {
	Roll() int
}

type randomDice struct{}

func (randomDice) Roll() int { return rand.IntN(6) + 1 }

// RandomDice is a uniform die backed by the runtime's concurrent-safe source.
func RandomDice() Dice { return randomDice{} }

// ScriptedDice replays a fixed sequence, cycling when exhausted.
type ScriptedDice struct {
	mu    sync.Mutex
	faces []int
	next  int
}

func NewScriptedDice(faces ...int) *ScriptedDice {
	return &ScriptedDice{faces: faces}
}

func (d *ScriptedDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.faces) == 0 {
		return 1
	}
	v := d.faces[d.next%len(d.faces)]
	d.next++
	return v
}
