package core

import (
	"sort"
	"time"

	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/rs/zerolog/log"
)

type seat struct {
	sid  SessionID
	conn SignalConnection
}

// Room is only read or written under the registry lock. The game session has
// its own lock and may be used after the registry lock is released.
type Room struct {
	ID         domain.RoomID
	MaxPlayers int
	HostSlot   int
	CreatedAt  time.Time

	clients   map[int]seat
	started   bool
	session   *game.Session
	matchID   string
	startedAt time.Time
}

func newRoom(id domain.RoomID, maxPlayers int, now time.Time) *Room {
	return &Room{
		ID:         id,
		MaxPlayers: maxPlayers,
		CreatedAt:  now,
		clients:    make(map[int]seat, maxPlayers),
	}
}

func (r *Room) full() bool { return len(r.clients) >= r.MaxPlayers }

// freeSlot returns the lowest unoccupied slot.
func (r *Room) freeSlot() (int, bool) {
	for slot := 0; slot < r.MaxPlayers; slot++ {
		if _, taken := r.clients[slot]; !taken {
			return slot, true
		}
	}
	return 0, false
}

func (r *Room) slots() []int {
	out := make([]int, 0, len(r.clients))
	for slot := range r.clients {
		out = append(out, slot)
	}
	sort.Ints(out)
	return out
}

func (r *Room) details() domain.RoomDetails {
	return domain.RoomDetails{
		RoomID:         r.ID,
		HostID:         r.HostSlot,
		CurrentPlayers: len(r.clients),
		MaxPlayers:     r.MaxPlayers,
		PlayerIDs:      r.slots(),
		GameStarted:    r.started,
	}
}

func (r *Room) info() domain.RoomInfo {
	return domain.RoomInfo{
		RoomID:         r.ID,
		CurrentPlayers: len(r.clients),
		MaxPlayers:     r.MaxPlayers,
		GameStarted:    r.started,
	}
}

func (r *Room) match() Match {
	return Match{
		ID:         r.matchID,
		RoomID:     r.ID,
		MaxPlayers: r.MaxPlayers,
		StartedAt:  r.startedAt,
		Session:    r.session,
	}
}

// peers snapshots the seated connections in slot order, skipping exclude.
func (r *Room) peers(exclude int) []Peer {
	out := make([]Peer, 0, len(r.clients))
	for _, slot := range r.slots() {
		if slot == exclude {
			continue
		}
		s := r.clients[slot]
		out = append(out, Peer{SID: s.sid, Slot: slot, Conn: s.conn})
	}
	return out
}

// Broadcast sends frame to every peer. It must be called without the registry
// lock held; a failing peer is reported in Dropped and never stops the others.
func Broadcast(peers []Peer, frame Frame) PublishResult {
	res := PublishResult{}
	for _, p := range peers {
		if err := p.Conn.Send(frame); err != nil {
			log.Debug().Err(err).Str("module", "core.room").Str("sid", string(p.SID)).Int("slot", p.Slot).Msg("send failed")
			res.Dropped = append(res.Dropped, DroppedPeer{Peer: p, Err: err})
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
