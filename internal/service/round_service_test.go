package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

type roundSessionStub struct {
	session *models.Session
	rounds  []models.Round
}

func (s roundSessionStub) FindRound(ctx context.Context, roundID string) (*models.Round, error) {
	for i := range s.rounds {
		if s.rounds[i].ID == roundID {
			return &s.rounds[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s roundSessionStub) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s.session == nil || s.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.session, nil
}

func (s roundSessionStub) ListRounds(ctx context.Context, sessionID string) ([]models.Round, error) {
	return s.rounds, nil
}

type roundTrackStub struct {
	track *models.RoundTrack
}

func (s roundTrackStub) GetRoundTrack(ctx context.Context, roundID string) (*models.RoundTrack, error) {
	return s.track, nil
}

type roundRosterStub struct {
	enrollments []models.Enrollment
}

func (s roundRosterStub) ListEnrollments(ctx context.Context, scheduleID string) ([]models.Enrollment, error) {
	return s.enrollments, nil
}

type roundPublisherStub struct {
	jobs []jobs.Job
}

func (s *roundPublisherStub) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

type roundCacheStub struct {
	store map[string]interface{}
	sets  int
}

func (s *roundCacheStub) GetCached(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (s *roundCacheStub) SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		s.store = map[string]interface{}{}
	}
	s.store[key] = value
	s.sets++
	return nil
}

func roundFixtureSessions() roundSessionStub {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return roundSessionStub{
		session: &models.Session{ID: "sess-1", ScheduleID: "sched-1"},
		rounds: []models.Round{
			{ID: "round-1", SessionID: "sess-1", RoundNumber: 1, StartTime: start, EndTime: start.Add(5 * time.Minute)},
			{ID: "round-2", SessionID: "sess-1", RoundNumber: 2, StartTime: start.Add(5 * time.Minute), EndTime: start.Add(10 * time.Minute)},
		},
	}
}

func TestRoundServiceCalculateFinalRound(t *testing.T) {
	publisher := &roundPublisherStub{}
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, publisher, nil, 0, nil, nil)

	resp, err := svc.CalculateRoundAttendance(context.Background(), dto.CalculateRoundAttendanceRequest{SessionID: "sess-1", RoundID: "round-2"})
	require.NoError(t, err)
	assert.True(t, resp.IsFinalRound)

	require.Len(t, publisher.jobs, 1)
	assert.Equal(t, models.MessageTypeCalculateRound, publisher.jobs[0].Type)
	msg, ok := publisher.jobs[0].Payload.(models.CalculateRoundAttendanceMessage)
	require.True(t, ok)
	assert.Equal(t, 2, msg.TotalRounds)
	assert.True(t, msg.IsFinalRound)
}

func TestRoundServiceCalculateIntermediateRound(t *testing.T) {
	publisher := &roundPublisherStub{}
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, publisher, nil, 0, nil, nil)

	resp, err := svc.CalculateRoundAttendance(context.Background(), dto.CalculateRoundAttendanceRequest{SessionID: "sess-1", RoundID: "round-1"})
	require.NoError(t, err)
	assert.False(t, resp.IsFinalRound)
}

func TestRoundServiceCalculateRoundNotFound(t *testing.T) {
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, &roundPublisherStub{}, nil, 0, nil, nil)

	_, err := svc.CalculateRoundAttendance(context.Background(), dto.CalculateRoundAttendanceRequest{SessionID: "sess-1", RoundID: "round-ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRoundServiceCalculateSessionMismatch(t *testing.T) {
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, &roundPublisherStub{}, nil, 0, nil, nil)

	_, err := svc.CalculateRoundAttendance(context.Background(), dto.CalculateRoundAttendanceRequest{SessionID: "sess-other", RoundID: "round-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoundServiceResultWithoutTrackIsEmpty(t *testing.T) {
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, &roundPublisherStub{}, nil, 0, nil, nil)

	result, err := svc.GetRoundResult(context.Background(), "round-1")
	require.NoError(t, err)
	assert.Equal(t, "round-1", result.RoundID)
	assert.NotNil(t, result.StudentsAttendance)
	assert.Empty(t, result.StudentsAttendance)
}

func TestRoundServiceResultJoinsRosterNames(t *testing.T) {
	attendedAt := time.Date(2026, 3, 2, 10, 1, 0, 0, time.UTC)
	tracks := roundTrackStub{track: &models.RoundTrack{
		RoundID:   "round-1",
		SessionID: "sess-1",
		Participation: models.StudentParticipationList{
			{StudentID: "stu-1", IsAttended: true, AttendedTime: &attendedAt},
			{StudentID: "stu-2", IsAttended: false},
		},
	}}
	roster := roundRosterStub{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", FullName: "Alice"},
		{ID: "enr-2", StudentID: "stu-2", FullName: "Bob"},
	}}
	cache := &roundCacheStub{}
	svc := NewRoundService(roundFixtureSessions(), tracks, roster, &roundPublisherStub{}, cache, time.Minute, nil, nil)

	result, err := svc.GetRoundResult(context.Background(), "round-1")
	require.NoError(t, err)
	require.Len(t, result.StudentsAttendance, 2)
	assert.Equal(t, "Alice", result.StudentsAttendance[0].FullName)
	assert.True(t, result.StudentsAttendance[0].IsAttended)
	assert.Equal(t, "Bob", result.StudentsAttendance[1].FullName)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.store, "round-result:round-1")
}

func TestRoundServiceResultRoundNotFound(t *testing.T) {
	svc := NewRoundService(roundFixtureSessions(), roundTrackStub{}, roundRosterStub{}, &roundPublisherStub{}, nil, 0, nil, nil)

	_, err := svc.GetRoundResult(context.Background(), "round-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
