package app

import (
	"errors"

	"github.com/dkeye/Ludo/internal/core"
	"github.com/dkeye/Ludo/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a peer whose send failed during a broadcast.
type Policy interface {
	OnSendFailure(room domain.RoomID, peer core.Peer, err error) BackpressureAction
}

// SimplePolicy kicks every peer that could not be reached.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(domain.RoomID, core.Peer, error) BackpressureAction {
	return KickMember
}

// LostOnlyPolicy kicks only peers whose transport is gone and tolerates
// transient failures such as a full send buffer.
type LostOnlyPolicy struct{}

func (LostOnlyPolicy) OnSendFailure(_ domain.RoomID, _ core.Peer, err error) BackpressureAction {
	if errors.Is(err, domain.ErrConnectionLost) {
		return KickMember
	}
	return NoAction
}
