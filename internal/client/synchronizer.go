package client

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"pairfocus/internal/model"
)

// ErrNoSession is returned when an operation needs an active synchronized
// session and there is none.
var ErrNoSession = errors.New("no synchronized session active")

// DefaultPollInterval is how often the synchronizer polls room status while
// a session is active.
const DefaultPollInterval = 3 * time.Second

// Events receives session callbacks from the Synchronizer. Callbacks fire
// on the polling goroutine; implementations that drive a UI must hand off
// to their own event loop.
type Events interface {
	// CountdownStarted fires exactly once per session, when the room is
	// first observed running. remaining is already adjusted for the time
	// elapsed since the server stamped started_at, and is zero when the
	// session expired before this client noticed.
	CountdownStarted(total, remaining time.Duration)
	// PartnerCancelled fires when the other participant cancelled the
	// session. The local session has already been torn down.
	PartnerCancelled(userID string)
	// RoomLost fires when the server no longer knows the room (restart or
	// expiry). Treated like a partner cancellation.
	RoomLost()
	// SyncError reports a transient failure. Polling continues.
	SyncError(err error)
}

// Synchronizer drives a local countdown in lock-step with the authoritative
// room state, per the coordinator's polling protocol.
type Synchronizer struct {
	api      *Client
	clock    clockwork.Clock
	events   Events
	interval time.Duration

	mu          sync.Mutex
	roomName    string
	userID      string
	active      bool
	countdownOn bool
	stop        chan struct{}
}

// NewSynchronizer creates a synchronizer with a freshly generated opaque
// user id. Pass clockwork.NewRealClock() outside of tests.
func NewSynchronizer(api *Client, events Events, clock clockwork.Clock) *Synchronizer {
	return &Synchronizer{
		api:      api,
		clock:    clock,
		events:   events,
		interval: DefaultPollInterval,
		userID:   "u_" + uuid.New().String()[:8],
	}
}

// SetPollInterval overrides the polling cadence. Must be called before
// Connect.
func (s *Synchronizer) SetPollInterval(d time.Duration) {
	s.interval = d
}

// UserID returns this client's opaque identifier.
func (s *Synchronizer) UserID() string {
	return s.userID
}

// Active reports whether a synchronized session is in progress.
func (s *Synchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Connect joins the room and starts the poll loop. On failure (room full or
// network error) no polling state is entered and the error is returned to
// the caller.
func (s *Synchronizer) Connect(roomName string) (*model.RoomSnapshot, error) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, errors.New("synchronized session already active")
	}
	s.mu.Unlock()

	snap, err := s.api.JoinRoom(roomName, s.userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.roomName = roomName
	s.active = true
	s.countdownOn = false
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go s.pollLoop(stop)
	return snap, nil
}

// RequestStart signals readiness with the locally chosen duration. The
// local countdown does not begin here; it begins when the room is observed
// running, which for the triggering client happens immediately via the
// call's own response.
func (s *Synchronizer) RequestStart(duration time.Duration) error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNoSession
	}
	roomName := s.roomName
	s.mu.Unlock()

	snap, err := s.api.StartTimer(roomName, s.userID, int(duration/time.Second))
	if err != nil {
		return err
	}
	s.handleSnapshot(snap)
	return nil
}

// Cancel notifies the server best-effort and tears the local session down
// unconditionally; local state must never stay stuck on a failed round-trip.
func (s *Synchronizer) Cancel() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	roomName := s.roomName
	s.mu.Unlock()

	if err := s.api.CancelTimer(roomName, s.userID); err != nil {
		s.events.SyncError(err)
	}
	s.teardown()
}

// Disconnect stops polling and clears local session state without notifying
// the server; the coordinator has no leave operation.
func (s *Synchronizer) Disconnect() {
	s.teardown()
}

// teardown is idempotent.
func (s *Synchronizer) teardown() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.countdownOn = false
	s.roomName = ""
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()
}

func (s *Synchronizer) pollLoop(stop chan struct{}) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			s.pollOnce()
		}
	}
}

func (s *Synchronizer) pollOnce() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	roomName := s.roomName
	s.mu.Unlock()

	snap, err := s.api.RoomStatus(roomName)
	if err == ErrRoomNotFound {
		// Server lost the room, likely a restart. Same as a partner cancel.
		s.teardown()
		s.events.RoomLost()
		return
	}
	if err != nil {
		s.events.SyncError(err)
		return
	}
	s.handleSnapshot(snap)
}

func (s *Synchronizer) handleSnapshot(snap *model.RoomSnapshot) {
	if snap == nil || snap.Status == "" {
		return
	}

	switch snap.Status {
	case model.RoomStatusRunning:
		remaining, ok := snap.Remaining(s.clock.Now())
		if !ok {
			return
		}

		s.mu.Lock()
		if !s.active || s.countdownOn {
			s.mu.Unlock()
			return
		}
		s.countdownOn = true
		s.mu.Unlock()

		if remaining < 0 {
			remaining = 0
		}
		s.events.CountdownStarted(snap.Duration(), remaining)

	case model.RoomStatusCancelled:
		s.mu.Lock()
		active := s.active
		own := snap.CancelledBy == s.userID
		s.mu.Unlock()
		if !active {
			return
		}

		s.teardown()
		if !own {
			s.events.PartnerCancelled(snap.CancelledBy)
		}
	}
}
