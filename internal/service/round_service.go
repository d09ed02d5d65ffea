package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

type roundReader interface {
	FindRound(ctx context.Context, roundID string) (*models.Round, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListRounds(ctx context.Context, sessionID string) ([]models.Round, error)
}

type roundTrackReader interface {
	GetRoundTrack(ctx context.Context, roundID string) (*models.RoundTrack, error)
}

type enrollmentReader interface {
	ListEnrollments(ctx context.Context, scheduleID string) ([]models.Enrollment, error)
}

type resultCache interface {
	GetCached(ctx context.Context, key string, dest interface{}) error
	SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type calcPublisher interface {
	Enqueue(job jobs.Job) error
}

// RoundService serves the round-level command and query: requesting a
// round's attendance calculation and reading its result.
type RoundService struct {
	sessions  roundReader
	tracks    roundTrackReader
	roster    enrollmentReader
	publisher calcPublisher
	cache     resultCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoundService constructs the service.
func NewRoundService(sessions roundReader, tracks roundTrackReader, roster enrollmentReader, publisher calcPublisher, cache resultCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *RoundService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoundService{
		sessions:  sessions,
		tracks:    tracks,
		roster:    roster,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// CalculateRoundAttendance loads the round, determines whether it is the
// session's terminal round and publishes the calculation message. The
// aggregation runs asynchronously so a transient failure retries without
// blocking the caller.
func (s *RoundService) CalculateRoundAttendance(ctx context.Context, req dto.CalculateRoundAttendanceRequest) (*dto.CalculateRoundAttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calculation request")
	}

	round, err := s.sessions.FindRound(ctx, req.RoundID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "round not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load round")
	}
	if round.SessionID != req.SessionID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "round does not belong to session")
	}

	rounds, err := s.sessions.ListRounds(ctx, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session rounds")
	}
	totalRounds := len(rounds)
	isFinal := round.RoundNumber == totalRounds

	msg := models.CalculateRoundAttendanceMessage{
		SessionID:    req.SessionID,
		RoundID:      req.RoundID,
		RoundNumber:  round.RoundNumber,
		TotalRounds:  totalRounds,
		IsFinalRound: isFinal,
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    models.MessageTypeCalculateRound,
		Payload: msg,
	}
	if err := s.publisher.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPublishFailed.Code, appErrors.ErrPublishFailed.Status, "failed to queue attendance calculation")
	}

	s.logger.Info("round calculation requested",
		zap.String("session_id", req.SessionID),
		zap.String("round_id", req.RoundID),
		zap.Bool("is_final_round", isFinal))
	return &dto.CalculateRoundAttendanceResponse{
		Success:      true,
		Message:      fmt.Sprintf("round %d of %d queued for calculation", round.RoundNumber, totalRounds),
		IsFinalRound: isFinal,
	}, nil
}

// GetRoundResult returns the round's attendance view. A round with no
// processed scans yields an empty attendance list, never an error.
func (s *RoundService) GetRoundResult(ctx context.Context, roundID string) (*dto.RoundResultDto, error) {
	if s.cache != nil {
		var cached dto.RoundResultDto
		if err := s.cache.GetCached(ctx, roundResultCacheKey(roundID), &cached); err == nil {
			return &cached, nil
		}
	}

	round, err := s.sessions.FindRound(ctx, roundID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "round not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load round")
	}

	result := &dto.RoundResultDto{
		RoundID:            round.ID,
		RoundNumber:        round.RoundNumber,
		Status:             round.Status,
		StartTime:          round.StartTime,
		EndTime:            round.EndTime,
		StudentsAttendance: []dto.StudentAttendanceDto{},
	}

	track, err := s.tracks.GetRoundTrack(ctx, roundID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load round track")
	}
	if track == nil {
		return result, nil
	}

	session, err := s.sessions.FindByID(ctx, round.SessionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	names := map[string]string{}
	if session != nil {
		enrollments, err := s.roster.ListEnrollments(ctx, session.ScheduleID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		for _, e := range enrollments {
			names[e.StudentID] = e.FullName
		}
	}

	for _, p := range track.Participation {
		result.StudentsAttendance = append(result.StudentsAttendance, dto.StudentAttendanceDto{
			StudentID:    p.StudentID,
			FullName:     names[p.StudentID],
			IsAttended:   p.IsAttended,
			AttendedTime: p.AttendedTime,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetCached(ctx, roundResultCacheKey(roundID), result, s.cacheTTL); err != nil {
			s.logger.Warn("round result cache write failed", zap.Error(err))
		}
	}
	return result, nil
}
