package core

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/dkeye/Ludo/internal/domain"
)

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IDGenerator produces candidate room codes of length n.
type IDGenerator func(n int) (domain.RoomID, error)

// RandomRoomID draws n characters uniformly from [A-Z0-9].
func RandomRoomID(n int) (domain.RoomID, error) {
	max := big.NewInt(int64(len(roomIDAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("room id: %w", err)
		}
		b[i] = roomIDAlphabet[idx.Int64()]
	}
	return domain.RoomID(b), nil
}
