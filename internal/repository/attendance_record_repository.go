package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

// AttendanceRecordRepository writes the durable relational attendance
// history produced by session finalization.
type AttendanceRecordRepository struct {
	db *sqlx.DB
}

// NewAttendanceRecordRepository constructs the repository.
func NewAttendanceRecordRepository(db *sqlx.DB) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{db: db}
}

// InsertIgnoreDuplicates writes finalization records. The table is unique
// on (enrollment_id, round_id); a conflicting insert from a concurrent or
// repeated finalization is skipped rather than treated as an error.
func (r *AttendanceRecordRepository) InsertIgnoreDuplicates(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attendance records: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	query := `INSERT INTO attendance_records (id, enrollment_id, round_id, is_present, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (enrollment_id, round_id) DO NOTHING`
	now := time.Now().UTC()
	inserted := 0
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		res, err := tx.ExecContext(ctx, query, rec.ID, rec.EnrollmentID, rec.RoundID, rec.IsPresent, rec.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("insert attendance record: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attendance records: %w", err)
	}
	committed = true
	return inserted, nil
}

// ListByEnrollment returns the enrollment's full attendance history.
func (r *AttendanceRecordRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error) {
	query := `SELECT id, enrollment_id, round_id, is_present, created_at
FROM attendance_records WHERE enrollment_id = $1 ORDER BY created_at`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// GetAttendanceStats aggregates the enrollment's history into counts used
// for course-level rate calculations.
func (r *AttendanceRecordRepository) GetAttendanceStats(ctx context.Context, enrollmentID string) (*models.AttendanceStats, error) {
	query := `SELECT enrollment_id,
COUNT(*) AS total_rounds,
COUNT(*) FILTER (WHERE is_present) AS present_rounds
FROM attendance_records WHERE enrollment_id = $1 GROUP BY enrollment_id`
	var stats models.AttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, enrollmentID); err != nil {
		if isNoRows(err) {
			return &models.AttendanceStats{EnrollmentID: enrollmentID}, nil
		}
		return nil, fmt.Errorf("attendance stats: %w", err)
	}
	if stats.TotalRounds > 0 {
		stats.Percentage = float64(stats.PresentRounds) / float64(stats.TotalRounds) * 100
	}
	return &stats, nil
}
