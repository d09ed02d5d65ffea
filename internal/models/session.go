package models

import "time"

// SessionStatus represents the lifecycle state of a class session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// Valid returns true when the status is a supported value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusCompleted:
		return true
	default:
		return false
	}
}

// Session is one class meeting instance. Sessions, rounds and whitelists are
// created by the scheduling path; this pipeline only reads them.
type Session struct {
	ID         string        `db:"id" json:"id"`
	ScheduleID string        `db:"schedule_id" json:"schedule_id"`
	StartTime  time.Time     `db:"start_time" json:"start_time"`
	EndTime    time.Time     `db:"end_time" json:"end_time"`
	Status     SessionStatus `db:"status" json:"status"`
	RoundCount int           `db:"round_count" json:"round_count"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// RoundStatus tracks whether a round's attendance has been computed.
type RoundStatus string

const (
	RoundStatusUnprocessed RoundStatus = "UNPROCESSED"
	RoundStatusProcessed   RoundStatus = "PROCESSED"
)

// Valid returns true when the status is a supported value.
func (s RoundStatus) Valid() bool {
	switch s {
	case RoundStatusUnprocessed, RoundStatusProcessed:
		return true
	default:
		return false
	}
}

// Round is a non-overlapping time sub-window of a session. Rounds are
// immutable once created; a scan belongs to at most one round by timestamp
// containment.
type Round struct {
	ID          string      `db:"id" json:"id"`
	SessionID   string      `db:"session_id" json:"session_id"`
	RoundNumber int         `db:"round_number" json:"round_number"`
	StartTime   time.Time   `db:"start_time" json:"start_time"`
	EndTime     time.Time   `db:"end_time" json:"end_time"`
	Status      RoundStatus `db:"status" json:"status"`
}

// Contains reports whether ts falls inside the round's [start, end) window.
func (r Round) Contains(ts time.Time) bool {
	return !ts.Before(r.StartTime) && ts.Before(r.EndTime)
}

// SessionWhitelist is the authoritative set of device identifiers eligible
// to count toward a session's attendance.
type SessionWhitelist struct {
	SessionID string    `db:"session_id" json:"session_id"`
	DeviceIDs []string  `db:"device_ids" json:"device_ids"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contains reports whitelist membership.
func (w SessionWhitelist) Contains(deviceID string) bool {
	for _, id := range w.DeviceIDs {
		if id == deviceID {
			return true
		}
	}
	return false
}
