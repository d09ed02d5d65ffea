package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

// ScanLogRepository persists the append-only scan audit log.
type ScanLogRepository struct {
	db *sqlx.DB
}

// NewScanLogRepository constructs the repository.
func NewScanLogRepository(db *sqlx.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// Append inserts one scan submission. Rows are never updated or deleted;
// duplicate submissions simply produce additional rows, which is safe
// because consensus recomputes from the full log.
func (r *ScanLogRepository) Append(ctx context.Context, log *models.ScanLog) (*models.ScanLog, error) {
	now := time.Now().UTC()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	query := `INSERT INTO scan_logs (id, request_id, device_id, submitter_user_id, session_id, rssi, scanned_devices, timestamp, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, request_id, device_id, submitter_user_id, session_id, rssi, scanned_devices, timestamp, created_at`
	var stored models.ScanLog
	if err := r.db.GetContext(ctx, &stored, query,
		log.ID, log.RequestID, log.DeviceID, log.SubmitterUserID, log.SessionID,
		log.Rssi, log.ScannedDevices, log.Timestamp, log.CreatedAt); err != nil {
		return nil, fmt.Errorf("append scan log: %w", err)
	}
	return &stored, nil
}

// ListByWindow returns the session's scans whose timestamps fall inside
// [from, to), in insertion order. The deterministic order is what makes
// tie-breaking on equal timestamps stable across reprocessing.
func (r *ScanLogRepository) ListByWindow(ctx context.Context, sessionID string, from, to time.Time) ([]models.ScanLog, error) {
	query := `SELECT id, request_id, device_id, submitter_user_id, session_id, rssi, scanned_devices, timestamp, created_at
FROM scan_logs WHERE session_id = $1 AND timestamp >= $2 AND timestamp < $3 ORDER BY created_at, id`
	var logs []models.ScanLog
	if err := r.db.SelectContext(ctx, &logs, query, sessionID, from, to); err != nil {
		return nil, fmt.Errorf("list scan logs by window: %w", err)
	}
	return logs, nil
}
