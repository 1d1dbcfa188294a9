package model

import "time"

// RoomStatus is the lifecycle state of a session room.
type RoomStatus string

const (
	RoomStatusWaiting   RoomStatus = "waiting"
	RoomStatusRunning   RoomStatus = "running"
	RoomStatusCancelled RoomStatus = "cancelled"
)

// MaxRoomUsers is the capacity bound of a session room. Synchronized
// sessions are strictly two-party.
const MaxRoomUsers = 2

// RoomSnapshot is the full serialized state of a room, returned by every
// coordinator operation. StartedAt is a Unix timestamp in seconds with
// fractional precision. DurationSeconds appears as soon as the first start
// call records it; StartedAt only once the room is running.
type RoomSnapshot struct {
	Users           []string        `json:"users"`
	Status          RoomStatus      `json:"status"`
	TimersStarted   map[string]bool `json:"timers_started"`
	CancelledBy     string          `json:"cancelled_by,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	StartedAt       *float64        `json:"started_at,omitempty"`
}

// HasUser reports whether id is a member of the room.
func (s *RoomSnapshot) HasUser(id string) bool {
	for _, u := range s.Users {
		if u == id {
			return true
		}
	}
	return false
}

// Remaining computes the remaining session time as observed at now.
// It returns false when the room has not started.
func (s *RoomSnapshot) Remaining(now time.Time) (time.Duration, bool) {
	if s.StartedAt == nil || s.DurationSeconds == nil {
		return 0, false
	}
	elapsed := float64(now.UnixNano())/1e9 - *s.StartedAt
	remaining := float64(*s.DurationSeconds) - elapsed
	return time.Duration(remaining * float64(time.Second)), true
}

// Duration returns the session length, or zero when no start call has
// recorded one yet.
func (s *RoomSnapshot) Duration() time.Duration {
	if s.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*s.DurationSeconds) * time.Second
}
