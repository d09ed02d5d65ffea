package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

// TrackRepository is the document-style store for round and student
// tracks: one JSONB participation list per key, replaced whole on every
// upsert. Last writer wins, which is safe because the consensus engine
// recomputes full state per invocation instead of merging deltas.
type TrackRepository struct {
	db *sqlx.DB
}

// NewTrackRepository constructs the repository.
func NewTrackRepository(db *sqlx.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// UpsertRoundTrack replaces the stored participation list for the round.
func (r *TrackRepository) UpsertRoundTrack(ctx context.Context, track *models.RoundTrack) error {
	track.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO round_tracks (round_id, session_id, participation, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (round_id)
DO UPDATE SET participation = EXCLUDED.participation, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, track.RoundID, track.SessionID, track.Participation, track.UpdatedAt); err != nil {
		return fmt.Errorf("upsert round track: %w", err)
	}
	return nil
}

// GetRoundTrack loads one round track; nil when the round has not been
// processed yet.
func (r *TrackRepository) GetRoundTrack(ctx context.Context, roundID string) (*models.RoundTrack, error) {
	query := `SELECT round_id, session_id, participation, updated_at FROM round_tracks WHERE round_id = $1`
	var track models.RoundTrack
	if err := r.db.GetContext(ctx, &track, query, roundID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get round track: %w", err)
	}
	return &track, nil
}

// UpsertStudentTrack replaces the stored participation list for the
// student within a session.
func (r *TrackRepository) UpsertStudentTrack(ctx context.Context, track *models.StudentTrack) error {
	track.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO student_tracks (student_id, session_id, participation, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (student_id, session_id)
DO UPDATE SET participation = EXCLUDED.participation, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, track.StudentID, track.SessionID, track.Participation, track.UpdatedAt); err != nil {
		return fmt.Errorf("upsert student track: %w", err)
	}
	return nil
}

// GetStudentTrack loads one student's cross-round track for a session;
// nil when no round has been processed for them yet.
func (r *TrackRepository) GetStudentTrack(ctx context.Context, studentID, sessionID string) (*models.StudentTrack, error) {
	query := `SELECT student_id, session_id, participation, updated_at
FROM student_tracks WHERE student_id = $1 AND session_id = $2`
	var track models.StudentTrack
	if err := r.db.GetContext(ctx, &track, query, studentID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student track: %w", err)
	}
	return &track, nil
}

// ListStudentTracks returns every student track recorded for a session.
func (r *TrackRepository) ListStudentTracks(ctx context.Context, sessionID string) ([]models.StudentTrack, error) {
	query := `SELECT student_id, session_id, participation, updated_at
FROM student_tracks WHERE session_id = $1 ORDER BY student_id`
	var tracks []models.StudentTrack
	if err := r.db.SelectContext(ctx, &tracks, query, sessionID); err != nil {
		return nil, fmt.Errorf("list student tracks: %w", err)
	}
	return tracks, nil
}
