package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
)

func newScanLogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScanLogRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newScanLogRepoMock(t)
	defer cleanup()
	repo := NewScanLogRepository(db)

	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "request_id", "device_id", "submitter_user_id", "session_id", "rssi", "scanned_devices", "timestamp", "created_at"}).
		AddRow("log-1", "req-1", "dev-1", "stu-1", "sess-1", nil, []byte(`[{"device_id":"dev-2","rssi":-61}]`), ts, ts)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO scan_logs")).
		WithArgs(sqlmock.AnyArg(), "req-1", "dev-1", "stu-1", "sess-1", nil, sqlmock.AnyArg(), ts, sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Append(context.Background(), &models.ScanLog{
		RequestID:       "req-1",
		DeviceID:        "dev-1",
		SubmitterUserID: "stu-1",
		SessionID:       "sess-1",
		ScannedDevices:  models.ScannedDeviceList{{DeviceID: "dev-2", Rssi: -61}},
		Timestamp:       ts,
	})
	require.NoError(t, err)
	require.Equal(t, "log-1", stored.ID)
	require.Len(t, stored.ScannedDevices, 1)
	require.Equal(t, "dev-2", stored.ScannedDevices[0].DeviceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanLogRepositoryListByWindowKeepsInsertionOrder(t *testing.T) {
	db, mock, cleanup := newScanLogRepoMock(t)
	defer cleanup()
	repo := NewScanLogRepository(db)

	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	to := from.Add(5 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "request_id", "device_id", "submitter_user_id", "session_id", "rssi", "scanned_devices", "timestamp", "created_at"}).
		AddRow("log-1", "req-1", "dev-1", "stu-1", "sess-1", nil, []byte(`[]`), from, from).
		AddRow("log-2", "req-2", "dev-2", "stu-2", "sess-1", nil, []byte(`[]`), from.Add(time.Minute), from.Add(time.Second))
	mock.ExpectQuery(regexp.QuoteMeta("timestamp >= $2 AND timestamp < $3 ORDER BY created_at, id")).
		WithArgs("sess-1", from, to).
		WillReturnRows(rows)

	logs, err := repo.ListByWindow(context.Background(), "sess-1", from, to)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "log-1", logs[0].ID)
	require.Equal(t, "log-2", logs[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
