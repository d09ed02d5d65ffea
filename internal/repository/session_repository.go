package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

// SessionRepository reads sessions, round windows and device whitelists.
// These tables are owned by the session-creation path; this pipeline never
// writes them.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID loads one session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, schedule_id, start_time, end_time, status, round_count, created_at
FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// FindRound loads one round.
func (r *SessionRepository) FindRound(ctx context.Context, roundID string) (*models.Round, error) {
	query := `SELECT id, session_id, round_number, start_time, end_time, status
FROM rounds WHERE id = $1`
	var round models.Round
	if err := r.db.GetContext(ctx, &round, query, roundID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find round: %w", err)
	}
	return &round, nil
}

// ListRounds returns a session's rounds ordered by sequence number.
func (r *SessionRepository) ListRounds(ctx context.Context, sessionID string) ([]models.Round, error) {
	query := `SELECT id, session_id, round_number, start_time, end_time, status
FROM rounds WHERE session_id = $1 ORDER BY round_number`
	var rounds []models.Round
	if err := r.db.SelectContext(ctx, &rounds, query, sessionID); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return rounds, nil
}

// MarkRoundProcessed flips a round to processed. Re-marking an already
// processed round is a no-op, there is no un-process transition.
func (r *SessionRepository) MarkRoundProcessed(ctx context.Context, roundID string) error {
	query := `UPDATE rounds SET status = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, models.RoundStatusProcessed, roundID); err != nil {
		return fmt.Errorf("mark round processed: %w", err)
	}
	return nil
}

// GetWhitelist loads the session's authorized device set. A missing row is
// returned as an empty whitelist, not an error: partial data produces
// partial results downstream.
func (r *SessionRepository) GetWhitelist(ctx context.Context, sessionID string) (*models.SessionWhitelist, error) {
	query := `SELECT session_id, device_ids, created_at FROM session_whitelists WHERE session_id = $1`
	row := r.db.QueryRowxContext(ctx, query, sessionID)
	var wl models.SessionWhitelist
	var deviceIDs pq.StringArray
	if err := row.Scan(&wl.SessionID, &deviceIDs, &wl.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return &models.SessionWhitelist{SessionID: sessionID, DeviceIDs: nil}, nil
		}
		return nil, fmt.Errorf("get whitelist: %w", err)
	}
	wl.DeviceIDs = deviceIDs
	return &wl, nil
}
