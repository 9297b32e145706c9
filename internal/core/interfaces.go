package core

import "context"

// Frame is one encoded protocol message without transport framing.
type Frame []byte

type SessionID string

// SignalConnection abstracts a client transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// Send delivers one frame or reports why it could not.
	Send(Frame) error
	Close()
}

// ConnHandler receives connection events from a transport adapter.
type ConnHandler interface {
	OnConnect(sid SessionID, conn SignalConnection)
	OnFrame(ctx context.Context, sid SessionID, conn SignalConnection, data []byte)
	OnDisconnect(ctx context.Context, sid SessionID)
}

type ConnState int

const (
	StateConnected ConnState = iota
	StateInRoomWaiting
	StateInGame
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateInRoomWaiting:
		return "IN_ROOM_WAITING"
	case StateInGame:
		return "IN_GAME"
	case StateDisconnected:
		return "DISCONNECTED"
	}
	return "UNKNOWN"
}

// Peer is a seated connection captured in a registry snapshot.
type Peer struct {
	SID  SessionID
	Slot int
	Conn SignalConnection
}

// DroppedPeer is a peer a frame could not be delivered to.
type DroppedPeer struct {
	Peer
	Err error
}

// PublishResult reports delivery stats to the orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []DroppedPeer
}
