package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StudentParticipation is one student's outcome within a round.
type StudentParticipation struct {
	StudentID    string     `json:"student_id"`
	IsAttended   bool       `json:"is_attended"`
	AttendedTime *time.Time `json:"attended_time,omitempty"`
}

// StudentParticipationList is stored as a JSONB document column.
type StudentParticipationList []StudentParticipation

// Value implements driver.Valuer.
func (l StudentParticipationList) Value() (driver.Value, error) {
	if l == nil {
		l = StudentParticipationList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StudentParticipationList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StudentParticipationList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported participation list source %T", src)
	}
}

// RoundTrack holds every student's presence outcome for one round. It is
// upserted whole by the consensus engine, keyed by round id.
type RoundTrack struct {
	RoundID       string                   `db:"round_id" json:"round_id"`
	SessionID     string                   `db:"session_id" json:"session_id"`
	Participation StudentParticipationList `db:"participation" json:"participation"`
	UpdatedAt     time.Time                `db:"updated_at" json:"updated_at"`
}

// RoundParticipation is one round's outcome within a student track.
type RoundParticipation struct {
	RoundID      string     `json:"round_id"`
	IsAttended   bool       `json:"is_attended"`
	AttendedTime *time.Time `json:"attended_time,omitempty"`
}

// RoundParticipationList is stored as a JSONB document column.
type RoundParticipationList []RoundParticipation

// Value implements driver.Valuer.
func (l RoundParticipationList) Value() (driver.Value, error) {
	if l == nil {
		l = RoundParticipationList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *RoundParticipationList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = RoundParticipationList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported participation list source %T", src)
	}
}

// StudentTrack mirrors RoundTrack from the student's perspective, one entry
// per round the student could have attended. Maintained in lock-step with
// the round track under the same recomputation.
type StudentTrack struct {
	StudentID     string                 `db:"student_id" json:"student_id"`
	SessionID     string                 `db:"session_id" json:"session_id"`
	Participation RoundParticipationList `db:"participation" json:"participation"`
	UpdatedAt     time.Time              `db:"updated_at" json:"updated_at"`
}

// ParticipationFor returns the entry for the given round, if present.
func (t StudentTrack) ParticipationFor(roundID string) (RoundParticipation, bool) {
	for _, p := range t.Participation {
		if p.RoundID == roundID {
			return p, true
		}
	}
	return RoundParticipation{}, false
}
