package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/game"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// NoSlot excludes nobody from a member snapshot.
	NoSlot = -1

	DefaultRoomIDLength = 4
	maxIDAttempts       = 64
)

// Match is the started game of a room.
type Match struct {
	ID         string
	RoomID     domain.RoomID
	MaxPlayers int
	StartedAt  time.Time
	Session    *game.Session
}

type JoinResult struct {
	Details domain.RoomDetails
	Slot    int
	// Started is set when this join filled the room and started the game.
	Started bool
	Match   Match
}

type StartResult struct {
	Details domain.RoomDetails
	Match   Match
}

// Departure describes what RemoveConnection did.
type Departure struct {
	RoomID domain.RoomID
	Slot   int
	// Details is the room as left behind; zero when the room was deleted.
	Details     domain.RoomDetails
	RoomDeleted bool
	// Aborted is set when the connection left a started game.
	Aborted bool
	Match   Match
}

type Option func(*Registry)

func WithRoomIDLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.idLen = n
		}
	}
}

func WithIDGenerator(gen IDGenerator) Option { return func(r *Registry) { r.newID = gen } }

// WithAutoStart starts the game as soon as a room fills up.
func WithAutoStart(on bool) Option { return func(r *Registry) { r.autoStart = on } }

// WithSessionOptions is passed to every game.NewSession.
func WithSessionOptions(opts ...game.Option) Option {
	return func(r *Registry) { r.sessionOpts = opts }
}

func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

type member struct {
	room domain.RoomID
	slot int
}

// Registry owns every room and the connection -> room reverse index. Both maps
// change only under mu, and no I/O ever happens while mu is held.
type Registry struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*Room
	bySID map[SessionID]member

	idLen       int
	newID       IDGenerator
	autoStart   bool
	sessionOpts []game.Option
	now         func() time.Time
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:     make(map[domain.RoomID]*Room),
		bySID:     make(map[SessionID]member),
		idLen:     DefaultRoomIDLength,
		newID:     RandomRoomID,
		autoStart: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom opens a room with the caller as host in slot 0.
func (r *Registry) CreateRoom(sid SessionID, conn SignalConnection, maxPlayers int) (domain.RoomDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.bySID[sid]; ok {
		return domain.RoomDetails{}, fmt.Errorf("create room: in %s: %w", m.room, domain.ErrAlreadyInRoom)
	}
	id, err := r.uniqueIDLocked()
	if err != nil {
		return domain.RoomDetails{}, fmt.Errorf("create room: %w", err)
	}
	room := newRoom(id, domain.ClampMaxPlayers(maxPlayers), r.now())
	room.clients[0] = seat{sid: sid, conn: conn}
	r.rooms[id] = room
	r.bySID[sid] = member{room: id, slot: 0}

	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("room", string(id)).Int("max_players", room.MaxPlayers).Msg("room created")
	return room.details(), nil
}

func (r *Registry) uniqueIDLocked() (domain.RoomID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := r.newID(r.idLen)
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free room id after %d attempts", maxIDAttempts)
}

// JoinRoom seats the caller in the lowest free slot of roomID.
func (r *Registry) JoinRoom(sid SessionID, conn SignalConnection, roomID domain.RoomID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.bySID[sid]; ok {
		return JoinResult{}, fmt.Errorf("join room: in %s: %w", m.room, domain.ErrAlreadyInRoom)
	}
	room, ok := r.rooms[roomID]
	if !ok {
		return JoinResult{}, fmt.Errorf("join room %q: %w", roomID, domain.ErrRoomNotFound)
	}
	if room.started {
		return JoinResult{}, fmt.Errorf("join room %s: %w", roomID, domain.ErrGameAlreadyStarted)
	}
	slot, ok := room.freeSlot()
	if !ok {
		return JoinResult{}, fmt.Errorf("join room %s: %w", roomID, domain.ErrRoomFull)
	}
	room.clients[slot] = seat{sid: sid, conn: conn}
	r.bySID[sid] = member{room: roomID, slot: slot}

	res := JoinResult{Slot: slot}
	if r.autoStart && room.full() {
		if err := r.startLocked(room); err != nil {
			log.Error().Err(err).Str("module", "core.registry").Str("room", string(roomID)).Msg("auto start failed")
		} else {
			res.Started = true
			res.Match = room.match()
		}
	}
	res.Details = room.details()

	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("room", string(roomID)).Int("slot", slot).Bool("started", res.Started).Msg("joined room")
	return res, nil
}

// StartGame starts the caller's room. Only the host may start a full room.
func (r *Registry) StartGame(sid SessionID) (StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.bySID[sid]
	if !ok {
		return StartResult{}, fmt.Errorf("start game: %w", domain.ErrNotInRoom)
	}
	room, ok := r.rooms[m.room]
	if !ok {
		return StartResult{}, fmt.Errorf("start game %s: %w", m.room, domain.ErrRoomNotFound)
	}
	if room.started {
		return StartResult{}, fmt.Errorf("start game %s: %w", m.room, domain.ErrGameAlreadyStarted)
	}
	if m.slot != room.HostSlot {
		return StartResult{}, fmt.Errorf("start game %s: %w", m.room, domain.ErrNotHost)
	}
	if !room.full() {
		return StartResult{}, fmt.Errorf("start game %s: %d/%d: %w", m.room, len(room.clients), room.MaxPlayers, domain.ErrRoomNotReady)
	}
	if err := r.startLocked(room); err != nil {
		return StartResult{}, fmt.Errorf("start game %s: %w", m.room, err)
	}
	return StartResult{Details: room.details(), Match: room.match()}, nil
}

func (r *Registry) startLocked(room *Room) error {
	sess, err := game.NewSession(len(room.clients), r.sessionOpts...)
	if err != nil {
		return err
	}
	room.session = sess
	room.started = true
	room.matchID = uuid.NewString()
	room.startedAt = r.now()
	log.Info().Str("module", "core.registry").Str("room", string(room.ID)).Str("match", room.matchID).Int("players", len(room.clients)).Msg("game started")
	return nil
}

// RemoveConnection drops sid from its room. An empty room is deleted; leaving
// a started game aborts it for everyone. It reports false if sid was not seated.
func (r *Registry) RemoveConnection(sid SessionID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.bySID[sid]
	if !ok {
		return Departure{}, false
	}
	delete(r.bySID, sid)

	dep := Departure{RoomID: m.room, Slot: m.slot}
	room, ok := r.rooms[m.room]
	if !ok {
		return dep, true
	}
	delete(room.clients, m.slot)

	if room.started {
		dep.Aborted = true
		dep.Match = room.match()
		room.started = false
		room.session = nil
	}
	if len(room.clients) == 0 {
		delete(r.rooms, m.room)
		dep.RoomDeleted = true
		log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("room", string(m.room)).Msg("room deleted")
		return dep, true
	}
	dep.Details = room.details()

	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("room", string(m.room)).Int("slot", m.slot).Bool("aborted", dep.Aborted).Msg("connection removed")
	return dep, true
}

// Members snapshots the peers of roomID, skipping the exclude slot.
func (r *Registry) Members(roomID domain.RoomID, exclude int) ([]Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.peers(exclude), true
}

// Seat returns the room and slot of sid.
func (r *Registry) Seat(sid SessionID) (domain.RoomID, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bySID[sid]
	return m.room, m.slot, ok
}

// Game returns the running match of roomID.
func (r *Registry) Game(roomID domain.RoomID) (Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return Match{}, fmt.Errorf("room %s: %w", roomID, domain.ErrRoomNotFound)
	}
	if !room.started || room.session == nil {
		return Match{}, fmt.Errorf("room %s: %w", roomID, domain.ErrGameNotStarted)
	}
	return room.match(), nil
}

func (r *Registry) Details(roomID domain.RoomID) (domain.RoomDetails, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.RoomDetails{}, false
	}
	return room.details(), true
}

// List returns every live room ordered by id.
func (r *Registry) List() []domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (r *Registry) StateOf(sid SessionID) ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bySID[sid]
	if !ok {
		return StateConnected
	}
	if room, ok := r.rooms[m.room]; ok && room.started {
		return StateInGame
	}
	return StateInRoomWaiting
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
