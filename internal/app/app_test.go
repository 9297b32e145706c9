package app

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRoomRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per connection")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("a"))

	rl.Forget("a")
	assert.NotContains(t, rl.history, core.SessionID("a"))
}

func TestRoomRateLimiter_Disabled(t *testing.T) {
	var nilLimiter *RoomRateLimiter
	assert.True(t, nilLimiter.Allow("a"))
	nilLimiter.Forget("a")

	rl := NewRoomRateLimiter(0, time.Second)
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("a"))
	}
}

func TestPolicies(t *testing.T) {
	peer := core.Peer{SID: "a", Slot: 1}
	lost := errors.Join(domain.ErrConnectionLost, errors.New("broken pipe"))
	busy := errors.New("send buffer full")

	assert.Equal(t, KickMember, SimplePolicy{}.OnSendFailure("ABCD", peer, busy))
	assert.Equal(t, KickMember, LostOnlyPolicy{}.OnSendFailure("ABCD", peer, lost))
	assert.Equal(t, NoAction, LostOnlyPolicy{}.OnSendFailure("ABCD", peer, busy))
}
