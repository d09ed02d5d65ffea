package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

type finalizeSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindRound(ctx context.Context, roundID string) (*models.Round, error)
	ListRounds(ctx context.Context, sessionID string) ([]models.Round, error)
	MarkRoundProcessed(ctx context.Context, roundID string) error
}

type studentTrackReader interface {
	ListStudentTracks(ctx context.Context, sessionID string) ([]models.StudentTrack, error)
	GetStudentTrack(ctx context.Context, studentID, sessionID string) (*models.StudentTrack, error)
}

type recordWriter interface {
	InsertIgnoreDuplicates(ctx context.Context, records []models.AttendanceRecord) (int, error)
}

type finalizeMetrics interface {
	ObserveMessage(queue, outcome string)
	ObserveRoundFinalized()
}

// StatusCutoffs derives the terminal attendance verdict from a
// percentage.
type StatusCutoffs struct {
	PresentPercent float64
	LatePercent    float64
}

// Derive maps an attendance percentage to its terminal status.
func (c StatusCutoffs) Derive(percent float64, totalRounds int) models.AttendanceStatus {
	if totalRounds == 0 {
		return models.AttendanceStatusNoData
	}
	switch {
	case percent >= c.PresentPercent:
		return models.AttendanceStatusPresent
	case percent >= c.LatePercent:
		return models.AttendanceStatusLate
	default:
		return models.AttendanceStatusAbsent
	}
}

// FinalizeService consumes round calculation messages and, on the final
// round, folds every student's track into a session-level verdict and the
// durable attendance history.
type FinalizeService struct {
	sessions  finalizeSessionReader
	tracks    studentTrackReader
	roster    rosterReader
	records   recordWriter
	publisher calcPublisher
	metrics   finalizeMetrics
	cutoffs   StatusCutoffs
	logger    *zap.Logger
}

// NewFinalizeService constructs the finalizer.
func NewFinalizeService(sessions finalizeSessionReader, tracks studentTrackReader, roster rosterReader, records recordWriter, publisher calcPublisher, metrics finalizeMetrics, cutoffs StatusCutoffs, logger *zap.Logger) *FinalizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinalizeService{
		sessions:  sessions,
		tracks:    tracks,
		roster:    roster,
		records:   records,
		publisher: publisher,
		metrics:   metrics,
		cutoffs:   cutoffs,
		logger:    logger,
	}
}

// ProcessCalculation is the calculation queue consumer. A missing round is
// logged and skipped rather than failing the whole session; everything
// else retries through the queue.
func (s *FinalizeService) ProcessCalculation(ctx context.Context, msg models.CalculateRoundAttendanceMessage) error {
	round, err := s.sessions.FindRound(ctx, msg.RoundID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("calculation for unknown round skipped",
				zap.String("session_id", msg.SessionID),
				zap.String("round_id", msg.RoundID))
			s.observe("attendance-calculation", "dropped")
			return nil
		}
		s.observe("attendance-calculation", "error")
		return err
	}

	if err := s.sessions.MarkRoundProcessed(ctx, round.ID); err != nil {
		s.observe("attendance-calculation", "error")
		return err
	}

	if msg.IsFinalRound {
		final := models.SessionFinalAttendanceToProcess{
			SessionID:         msg.SessionID,
			ActualRoundsCount: msg.TotalRounds,
			Timestamp:         time.Now().UTC(),
		}
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    models.MessageTypeFinalizeSession,
			Payload: final,
		}
		if err := s.publisher.Enqueue(job); err != nil {
			s.observe("attendance-calculation", "error")
			return err
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveRoundFinalized()
	}
	s.observe("attendance-calculation", "ok")
	return nil
}

// ProcessFinalAttendance runs the cross-round aggregation and persists the
// attendance history. Re-finalization is idempotent: duplicate records are
// skipped by the uniqueness constraint.
func (s *FinalizeService) ProcessFinalAttendance(ctx context.Context, msg models.SessionFinalAttendanceToProcess) error {
	session, err := s.sessions.FindByID(ctx, msg.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("final aggregation for unknown session skipped", zap.String("session_id", msg.SessionID))
			return nil
		}
		return err
	}

	enrollments, err := s.roster.ListEnrollments(ctx, session.ScheduleID)
	if err != nil {
		return err
	}
	rounds, err := s.sessions.ListRounds(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	tracksBySession, err := s.tracks.ListStudentTracks(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	trackByStudent := make(map[string]models.StudentTrack, len(tracksBySession))
	for _, t := range tracksBySession {
		trackByStudent[t.StudentID] = t
	}

	totalRounds := msg.ActualRoundsCount
	if totalRounds == 0 {
		totalRounds = len(rounds)
	}

	records := make([]models.AttendanceRecord, 0, len(enrollments)*len(rounds))
	for _, enrollment := range enrollments {
		track := trackByStudent[enrollment.StudentID]
		for _, round := range rounds {
			present := false
			if p, ok := track.ParticipationFor(round.ID); ok {
				present = p.IsAttended
			}
			records = append(records, models.AttendanceRecord{
				EnrollmentID: enrollment.ID,
				RoundID:      round.ID,
				IsPresent:    present,
			})
		}
	}

	inserted, err := s.records.InsertIgnoreDuplicates(ctx, records)
	if err != nil {
		return err
	}
	s.logger.Info("session attendance finalized",
		zap.String("session_id", msg.SessionID),
		zap.Int("students", len(enrollments)),
		zap.Int("rounds", totalRounds),
		zap.Int("records_inserted", inserted))
	return nil
}

// GetSessionFinalAttendance returns every enrolled student's session
// verdict. Sessions with no processed rounds yield zeroed entries, not an
// error.
func (s *FinalizeService) GetSessionFinalAttendance(ctx context.Context, sessionID string) ([]dto.FinalAttendanceDto, error) {
	session, enrollments, rounds, err := s.loadSessionContext(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FinalAttendanceDto, 0, len(enrollments))
	for _, enrollment := range enrollments {
		track, err := s.tracks.GetStudentTrack(ctx, enrollment.StudentID, session.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student track")
		}
		out = append(out, s.buildFinal(enrollment, track, rounds))
	}
	return out, nil
}

// GetStudentFinalAttendance returns one student's verdict with their
// per-round breakdown.
func (s *FinalizeService) GetStudentFinalAttendance(ctx context.Context, sessionID, studentID string) (*dto.StudentFinalAttendanceDto, error) {
	session, enrollments, rounds, err := s.loadSessionContext(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var enrollment *models.Enrollment
	for i := range enrollments {
		if enrollments[i].StudentID == studentID {
			enrollment = &enrollments[i]
			break
		}
	}
	if enrollment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this session")
	}

	track, err := s.tracks.GetStudentTrack(ctx, studentID, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student track")
	}

	result := &dto.StudentFinalAttendanceDto{
		FinalAttendanceDto: s.buildFinal(*enrollment, track, rounds),
		Rounds:             make([]dto.RoundBreakdownDto, 0, len(rounds)),
	}
	for _, round := range rounds {
		entry := dto.RoundBreakdownDto{RoundID: round.ID, RoundNumber: round.RoundNumber}
		if track != nil {
			if p, ok := track.ParticipationFor(round.ID); ok {
				entry.IsAttended = p.IsAttended
				entry.AttendedTime = p.AttendedTime
			}
		}
		result.Rounds = append(result.Rounds, entry)
	}
	return result, nil
}

func (s *FinalizeService) loadSessionContext(ctx context.Context, sessionID string) (*models.Session, []models.Enrollment, []models.Round, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	enrollments, err := s.roster.ListEnrollments(ctx, session.ScheduleID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	rounds, err := s.sessions.ListRounds(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rounds")
	}
	return session, enrollments, rounds, nil
}

func (s *FinalizeService) buildFinal(enrollment models.Enrollment, track *models.StudentTrack, rounds []models.Round) dto.FinalAttendanceDto {
	totalRounds := len(rounds)
	attended := 0
	if track != nil {
		for _, round := range rounds {
			if p, ok := track.ParticipationFor(round.ID); ok && p.IsAttended {
				attended++
			}
		}
	}
	percent := 0.0
	if totalRounds > 0 {
		percent = float64(attended) / float64(totalRounds) * 100
	}
	status := s.cutoffs.Derive(percent, totalRounds)
	if track == nil && totalRounds > 0 {
		status = models.AttendanceStatusNoData
	}
	return dto.FinalAttendanceDto{
		StudentID:           enrollment.StudentID,
		FullName:            enrollment.FullName,
		EnrollmentID:        enrollment.ID,
		TotalRounds:         totalRounds,
		AttendedRoundsCount: attended,
		MissedRoundsCount:   totalRounds - attended,
		AttendancePercent:   percent,
		Status:              status,
	}
}

func (s *FinalizeService) observe(queue, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveMessage(queue, outcome)
	}
}
