package dto

import (
	"time"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

// StudentAttendanceDto is one student's outcome within a round result.
type StudentAttendanceDto struct {
	StudentID    string     `json:"student_id"`
	FullName     string     `json:"full_name"`
	IsAttended   bool       `json:"is_attended"`
	AttendedTime *time.Time `json:"attended_time,omitempty"`
}

// RoundResultDto is the round-level attendance view. Queries return a
// well-defined empty list, never an error, when no scans have been
// processed yet.
type RoundResultDto struct {
	RoundID            string                 `json:"round_id"`
	RoundNumber        int                    `json:"round_number"`
	Status             models.RoundStatus     `json:"status"`
	StartTime          time.Time              `json:"start_time"`
	EndTime            time.Time              `json:"end_time"`
	StudentsAttendance []StudentAttendanceDto `json:"students_attendance"`
}

// FinalAttendanceDto is one student's session-level verdict.
type FinalAttendanceDto struct {
	StudentID           string                  `json:"student_id"`
	FullName            string                  `json:"full_name"`
	EnrollmentID        string                  `json:"enrollment_id"`
	TotalRounds         int                     `json:"total_rounds"`
	AttendedRoundsCount int                     `json:"attended_rounds_count"`
	MissedRoundsCount   int                     `json:"missed_rounds_count"`
	AttendancePercent   float64                 `json:"attendance_percentage"`
	Status              models.AttendanceStatus `json:"status"`
}

// RoundBreakdownDto is one round inside a per-student breakdown.
type RoundBreakdownDto struct {
	RoundID      string     `json:"round_id"`
	RoundNumber  int        `json:"round_number"`
	IsAttended   bool       `json:"is_attended"`
	AttendedTime *time.Time `json:"attended_time,omitempty"`
}

// StudentFinalAttendanceDto extends the final verdict with the per-round
// breakdown for a single student.
type StudentFinalAttendanceDto struct {
	FinalAttendanceDto
	Rounds []RoundBreakdownDto `json:"rounds"`
}
