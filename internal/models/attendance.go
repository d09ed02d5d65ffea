package models

import "time"

// AttendanceStatus is the terminal per-student verdict for a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusNoData  AttendanceStatus = "NO_DATA"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent, AttendanceStatusNoData:
		return true
	default:
		return false
	}
}

// AttendanceRecord is the immutable relational history row, unique per
// (enrollment_id, round_id). Written only by session finalization.
type AttendanceRecord struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	RoundID      string    `db:"round_id" json:"round_id"`
	IsPresent    bool      `db:"is_present" json:"is_present"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AttendanceStats aggregates a student's durable attendance history.
type AttendanceStats struct {
	EnrollmentID  string  `db:"enrollment_id" json:"enrollment_id"`
	TotalRounds   int     `db:"total_rounds" json:"total_rounds"`
	PresentRounds int     `db:"present_rounds" json:"present_rounds"`
	Percentage    float64 `json:"percentage"`
}

// Enrollment links a student to the course a session belongs to. Owned by
// the enrollment collaborator; read here for roster membership.
type Enrollment struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	FullName  string `db:"full_name" json:"full_name"`
}

// Device maps a registered device to the user carrying it. Owned by the
// device-registration collaborator.
type Device struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
}
