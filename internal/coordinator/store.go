package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"pairfocus/internal/model"
)

var (
	// ErrRoomFull is returned by Join when the room is at capacity and the
	// caller is not already a member.
	ErrRoomFull = errors.New("room is full")
	// ErrRoomNotFound is returned for a room name that was never joined,
	// or whose record has been swept.
	ErrRoomNotFound = errors.New("room not found")
)

// Notifier receives a snapshot whenever a room transitions to running or
// cancelled. Calls happen outside the room lock.
type Notifier interface {
	NotifyRoom(roomName string, snap *model.RoomSnapshot)
}

// room is a single coordination record. Every room carries its own lock so
// unrelated rooms never serialize against each other; join/start/cancel/
// status against one room are totally ordered by it.
type room struct {
	mu            sync.Mutex
	users         []string
	status        model.RoomStatus
	timersStarted map[string]bool
	durationSecs  *int
	startedAt     *time.Time
	cancelledBy   string
	lastMutation  time.Time
	gone          bool // set by the sweeper after removal from the map
}

func newRoom(now time.Time) *room {
	return &room{
		status:        model.RoomStatusWaiting,
		timersStarted: make(map[string]bool),
		lastMutation:  now,
	}
}

func (r *room) member(userID string) bool {
	for _, u := range r.users {
		if u == userID {
			return true
		}
	}
	return false
}

// snapshot copies the room state. Callers must hold r.mu.
func (r *room) snapshot() *model.RoomSnapshot {
	snap := &model.RoomSnapshot{
		Users:         append([]string(nil), r.users...),
		Status:        r.status,
		TimersStarted: make(map[string]bool, len(r.timersStarted)),
		CancelledBy:   r.cancelledBy,
	}
	for id, started := range r.timersStarted {
		snap.TimersStarted[id] = started
	}
	if r.durationSecs != nil {
		d := *r.durationSecs
		snap.DurationSeconds = &d
	}
	if r.startedAt != nil {
		ts := float64(r.startedAt.UnixNano()) / 1e9
		snap.StartedAt = &ts
	}
	return snap
}

// Store is the authoritative in-memory room table. The store mutex guards
// only the map; room state is guarded per room. Lock order is always
// store then room.
type Store struct {
	mu       sync.Mutex
	rooms    map[string]*room
	clock    clockwork.Clock
	notifier Notifier
	ttl      time.Duration
}

// DefaultRoomTTL is how long a room survives after its last mutation
// before the sweeper reclaims it.
const DefaultRoomTTL = 24 * time.Hour

// NewStore creates an empty room store.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		rooms: make(map[string]*room),
		clock: clock,
		ttl:   DefaultRoomTTL,
	}
}

// SetNotifier wires a transition notifier. Must be called before the store
// serves requests.
func (s *Store) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetTTL overrides the room expiry horizon.
func (s *Store) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

// lookup returns the named room locked, or nil if it does not exist.
func (s *Store) lookup(roomName string) *room {
	s.mu.Lock()
	r, ok := s.rooms[roomName]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	r.mu.Lock()
	if r.gone {
		r.mu.Unlock()
		return nil
	}
	return r
}

// Join adds userID to the named room, creating it in waiting state on first
// contact. Rejoining members are confirmed idempotently. A cancelled room is
// terminal, so a join against one replaces it with a fresh record. Returns
// ErrRoomFull when the room is at capacity and the caller is not a member.
func (s *Store) Join(roomName, userID string) (*model.RoomSnapshot, error) {
	now := s.clock.Now()

	for {
		s.mu.Lock()
		r, ok := s.rooms[roomName]
		if !ok {
			r = newRoom(now)
			s.rooms[roomName] = r
		}
		s.mu.Unlock()

		r.mu.Lock()
		if r.gone {
			// Swept between map lookup and room lock; retry.
			r.mu.Unlock()
			continue
		}
		if r.status == model.RoomStatusCancelled {
			r.gone = true
			r.mu.Unlock()
			s.mu.Lock()
			if s.rooms[roomName] == r {
				delete(s.rooms, roomName)
			}
			s.mu.Unlock()
			continue
		}

		if !r.member(userID) {
			if len(r.users) >= model.MaxRoomUsers {
				r.mu.Unlock()
				return nil, ErrRoomFull
			}
			r.users = append(r.users, userID)
			r.timersStarted[userID] = false
		}
		r.lastMutation = now
		snap := r.snapshot()
		r.mu.Unlock()
		return snap, nil
	}
}

// Start records userID's readiness. The first start call for a room fixes
// durationSeconds; once every member of a full room is ready the room
// transitions to running and startedAt is stamped exactly once. Calls
// against a missing room, a non-member id, or a cancelled room are silent
// no-ops. The returned snapshot is nil only when the room does not exist.
func (s *Store) Start(roomName, userID string, durationSeconds int) *model.RoomSnapshot {
	r := s.lookup(roomName)
	if r == nil {
		return nil
	}

	if !r.member(userID) || r.status == model.RoomStatusCancelled {
		snap := r.snapshot()
		r.mu.Unlock()
		return snap
	}

	now := s.clock.Now()
	r.timersStarted[userID] = true
	if r.durationSecs == nil {
		d := durationSeconds
		r.durationSecs = &d
	}

	var started *model.RoomSnapshot
	if r.status == model.RoomStatusWaiting && len(r.users) == model.MaxRoomUsers && r.allReady() {
		r.status = model.RoomStatusRunning
		r.startedAt = &now
		started = r.snapshot()
	}
	r.lastMutation = now
	snap := r.snapshot()
	r.mu.Unlock()

	if started != nil && s.notifier != nil {
		s.notifier.NotifyRoom(roomName, started)
	}
	return snap
}

// Cancel flips the room to cancelled and records who asked for it. Cancelled
// is terminal: the status never reverts, though a later cancel may re-record
// cancelledBy. Returns false if the room does not exist.
func (s *Store) Cancel(roomName, userID string) bool {
	r := s.lookup(roomName)
	if r == nil {
		return false
	}

	transitioned := r.status != model.RoomStatusCancelled
	r.status = model.RoomStatusCancelled
	r.cancelledBy = userID
	r.lastMutation = s.clock.Now()
	var snap *model.RoomSnapshot
	if transitioned {
		snap = r.snapshot()
	}
	r.mu.Unlock()

	if snap != nil && s.notifier != nil {
		s.notifier.NotifyRoom(roomName, snap)
	}
	return true
}

// Status returns a read-only snapshot of the room, or ErrRoomNotFound.
func (s *Store) Status(roomName string) (*model.RoomSnapshot, error) {
	r := s.lookup(roomName)
	if r == nil {
		return nil, ErrRoomNotFound
	}
	snap := r.snapshot()
	r.mu.Unlock()
	return snap, nil
}

func (r *room) allReady() bool {
	for _, u := range r.users {
		if !r.timersStarted[u] {
			return false
		}
	}
	return len(r.users) > 0
}

// Sweep removes rooms whose last mutation is older than the TTL and
// returns how many were reclaimed.
func (s *Store) Sweep() int {
	cutoff := s.clock.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for name, r := range s.rooms {
		r.mu.Lock()
		if r.lastMutation.Before(cutoff) {
			r.gone = true
			delete(s.rooms, name)
			swept++
		}
		r.mu.Unlock()
	}
	return swept
}

// RunSweeper periodically sweeps expired rooms until ctx is done. Run it in
// its own goroutine.
func (s *Store) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := s.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.Sweep(); n > 0 {
				log.Printf("Swept %d expired rooms", n)
			}
		}
	}
}
