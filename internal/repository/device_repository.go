package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

// DeviceRepository resolves device identifiers to users and reads the
// enrollment roster for a session's schedule. Both tables belong to
// external collaborators; this pipeline only queries them.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs the repository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// ResolveUsers maps device ids to the user carrying each device.
// Unregistered devices are simply absent from the result.
func (r *DeviceRepository) ResolveUsers(ctx context.Context, deviceIDs []string) (map[string]string, error) {
	if len(deviceIDs) == 0 {
		return map[string]string{}, nil
	}
	query := `SELECT id, user_id FROM devices WHERE id = ANY($1)`
	var devices []models.Device
	if err := r.db.SelectContext(ctx, &devices, query, pq.Array(deviceIDs)); err != nil {
		return nil, fmt.Errorf("resolve devices: %w", err)
	}
	out := make(map[string]string, len(devices))
	for _, d := range devices {
		out[d.ID] = d.UserID
	}
	return out, nil
}

// ListEnrollments returns the students enrolled in the session's schedule,
// ordered by student id for deterministic result assembly.
func (r *DeviceRepository) ListEnrollments(ctx context.Context, scheduleID string) ([]models.Enrollment, error) {
	query := `SELECT e.id, e.student_id, s.full_name
FROM enrollments e
JOIN students s ON s.id = e.student_id
WHERE e.schedule_id = $1
ORDER BY e.student_id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
