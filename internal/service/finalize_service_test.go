package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
)

type finalizeSessionStub struct {
	session   *models.Session
	rounds    []models.Round
	processed []string
}

func (s *finalizeSessionStub) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s.session == nil || s.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.session, nil
}

func (s *finalizeSessionStub) FindRound(ctx context.Context, roundID string) (*models.Round, error) {
	for i := range s.rounds {
		if s.rounds[i].ID == roundID {
			return &s.rounds[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *finalizeSessionStub) ListRounds(ctx context.Context, sessionID string) ([]models.Round, error) {
	return s.rounds, nil
}

func (s *finalizeSessionStub) MarkRoundProcessed(ctx context.Context, roundID string) error {
	s.processed = append(s.processed, roundID)
	return nil
}

type finalizeTrackStub struct {
	tracks []models.StudentTrack
}

func (s finalizeTrackStub) ListStudentTracks(ctx context.Context, sessionID string) ([]models.StudentTrack, error) {
	return s.tracks, nil
}

func (s finalizeTrackStub) GetStudentTrack(ctx context.Context, studentID, sessionID string) (*models.StudentTrack, error) {
	for i := range s.tracks {
		if s.tracks[i].StudentID == studentID {
			return &s.tracks[i], nil
		}
	}
	return nil, nil
}

type recordWriterStub struct {
	records []models.AttendanceRecord
}

func (s *recordWriterStub) InsertIgnoreDuplicates(ctx context.Context, records []models.AttendanceRecord) (int, error) {
	s.records = append(s.records, records...)
	return len(records), nil
}

func defaultCutoffs() StatusCutoffs {
	return StatusCutoffs{PresentPercent: 75, LatePercent: 50}
}

func fourRoundFixture() (*finalizeSessionStub, consensusRosterStub, finalizeTrackStub) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	sessions := &finalizeSessionStub{
		session: &models.Session{ID: "sess-1", ScheduleID: "sched-1", RoundCount: 4},
	}
	for i := 0; i < 4; i++ {
		sessions.rounds = append(sessions.rounds, models.Round{
			ID:          fmt.Sprintf("round-%d", i+1),
			SessionID:   "sess-1",
			RoundNumber: i + 1,
			StartTime:   start.Add(time.Duration(i) * 5 * time.Minute),
			EndTime:     start.Add(time.Duration(i+1) * 5 * time.Minute),
		})
	}
	roster := consensusRosterStub{
		enrollments: []models.Enrollment{
			{ID: "enr-1", StudentID: "stu-1", FullName: "Alice"},
			{ID: "enr-2", StudentID: "stu-2", FullName: "Bob"},
		},
	}
	tracks := finalizeTrackStub{tracks: []models.StudentTrack{
		{
			StudentID: "stu-1",
			SessionID: "sess-1",
			Participation: models.RoundParticipationList{
				{RoundID: "round-1", IsAttended: true},
				{RoundID: "round-2", IsAttended: true},
				{RoundID: "round-3", IsAttended: false},
				{RoundID: "round-4", IsAttended: false},
			},
		},
	}}
	return sessions, roster, tracks
}

func TestStatusCutoffsDerive(t *testing.T) {
	cutoffs := defaultCutoffs()
	cases := []struct {
		percent float64
		rounds  int
		want    models.AttendanceStatus
	}{
		{100, 4, models.AttendanceStatusPresent},
		{75, 4, models.AttendanceStatusPresent},
		{74.9, 4, models.AttendanceStatusLate},
		{50, 4, models.AttendanceStatusLate},
		{49.9, 4, models.AttendanceStatusAbsent},
		{0, 4, models.AttendanceStatusAbsent},
		{0, 0, models.AttendanceStatusNoData},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cutoffs.Derive(tc.percent, tc.rounds), "percent %.1f", tc.percent)
	}
}

func TestFinalizeProcessCalculationFinalRoundChains(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	publisher := &roundPublisherStub{}
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, publisher, nil, defaultCutoffs(), nil)

	err := svc.ProcessCalculation(context.Background(), models.CalculateRoundAttendanceMessage{
		SessionID:    "sess-1",
		RoundID:      "round-4",
		RoundNumber:  4,
		TotalRounds:  4,
		IsFinalRound: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"round-4"}, sessions.processed)

	require.Len(t, publisher.jobs, 1)
	assert.Equal(t, models.MessageTypeFinalizeSession, publisher.jobs[0].Type)
	msg, ok := publisher.jobs[0].Payload.(models.SessionFinalAttendanceToProcess)
	require.True(t, ok)
	assert.Equal(t, "sess-1", msg.SessionID)
	assert.Equal(t, 4, msg.ActualRoundsCount)
}

func TestFinalizeProcessCalculationIntermediateRound(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	publisher := &roundPublisherStub{}
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, publisher, nil, defaultCutoffs(), nil)

	err := svc.ProcessCalculation(context.Background(), models.CalculateRoundAttendanceMessage{
		SessionID:   "sess-1",
		RoundID:     "round-2",
		RoundNumber: 2,
		TotalRounds: 4,
	})
	require.NoError(t, err)
	assert.Empty(t, publisher.jobs)
}

func TestFinalizeProcessCalculationUnknownRoundDropped(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	err := svc.ProcessCalculation(context.Background(), models.CalculateRoundAttendanceMessage{
		SessionID: "sess-1",
		RoundID:   "round-ghost",
	})
	require.NoError(t, err)
	assert.Empty(t, sessions.processed)
}

func TestFinalizeProcessFinalAttendanceWritesHistory(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	records := &recordWriterStub{}
	svc := NewFinalizeService(sessions, tracks, roster, records, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	err := svc.ProcessFinalAttendance(context.Background(), models.SessionFinalAttendanceToProcess{
		SessionID:         "sess-1",
		ActualRoundsCount: 4,
	})
	require.NoError(t, err)

	// One row per enrollment per round.
	require.Len(t, records.records, 8)
	present := map[string]bool{}
	for _, rec := range records.records {
		present[rec.EnrollmentID+"|"+rec.RoundID] = rec.IsPresent
	}
	assert.True(t, present["enr-1|round-1"])
	assert.True(t, present["enr-1|round-2"])
	assert.False(t, present["enr-1|round-3"])
	assert.False(t, present["enr-2|round-1"], "student without a track is recorded absent")
}

func TestFinalizeSessionFinalAttendanceAggregation(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	entries, err := svc.GetSessionFinalAttendance(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	alice := entries[0]
	assert.Equal(t, "stu-1", alice.StudentID)
	assert.Equal(t, 4, alice.TotalRounds)
	assert.Equal(t, 2, alice.AttendedRoundsCount)
	assert.Equal(t, 2, alice.MissedRoundsCount)
	assert.InDelta(t, 50.0, alice.AttendancePercent, 0.01)
	assert.Equal(t, models.AttendanceStatusLate, alice.Status)

	bob := entries[1]
	assert.Equal(t, models.AttendanceStatusNoData, bob.Status, "no track means no data, not absent")
	assert.Zero(t, bob.AttendedRoundsCount)
}

func TestFinalizeStudentFinalAttendanceBreakdown(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	result, err := svc.GetStudentFinalAttendance(context.Background(), "sess-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, result.Status)
	require.Len(t, result.Rounds, 4)
	assert.True(t, result.Rounds[0].IsAttended)
	assert.False(t, result.Rounds[3].IsAttended)
}

func TestFinalizeStudentNotEnrolled(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	_, err := svc.GetStudentFinalAttendance(context.Background(), "sess-1", "stu-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFinalizeSessionNotFound(t *testing.T) {
	sessions, roster, tracks := fourRoundFixture()
	svc := NewFinalizeService(sessions, tracks, roster, &recordWriterStub{}, &roundPublisherStub{}, nil, defaultCutoffs(), nil)

	_, err := svc.GetSessionFinalAttendance(context.Background(), "sess-ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
