package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
	"github.com/noah-isme/beacon-attendance-api/internal/proximity"
)

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListRounds(ctx context.Context, sessionID string) ([]models.Round, error)
	GetWhitelist(ctx context.Context, sessionID string) (*models.SessionWhitelist, error)
}

type scanLogReader interface {
	ListByWindow(ctx context.Context, sessionID string, from, to time.Time) ([]models.ScanLog, error)
}

type trackWriter interface {
	UpsertRoundTrack(ctx context.Context, track *models.RoundTrack) error
	UpsertStudentTrack(ctx context.Context, track *models.StudentTrack) error
	GetStudentTrack(ctx context.Context, studentID, sessionID string) (*models.StudentTrack, error)
}

type rosterReader interface {
	ResolveUsers(ctx context.Context, deviceIDs []string) (map[string]string, error)
	ListEnrollments(ctx context.Context, scheduleID string) ([]models.Enrollment, error)
}

type resultInvalidator interface {
	Invalidate(ctx context.Context, key string)
}

type consensusMetrics interface {
	ObserveMessage(queue, outcome string)
	ObserveConsensus(duration time.Duration)
}

// observation is one directed proximity sighting within a round.
type observation struct {
	observedUser string
	rssi         int
	timestamp    time.Time
	order        int
}

// ConsensusService turns a round's scan reports into per-student presence
// decisions. Every invocation rebuilds the round's full state from the
// append-only scan log, so redelivered or reordered messages converge to
// the same outcome.
type ConsensusService struct {
	sessions sessionReader
	scanLogs scanLogReader
	tracks   trackWriter
	roster   rosterReader
	cache    resultInvalidator
	metrics  consensusMetrics
	params   proximity.Params
	logger   *zap.Logger
}

// NewConsensusService constructs the engine.
func NewConsensusService(sessions sessionReader, scanLogs scanLogReader, tracks trackWriter, roster rosterReader, cache resultInvalidator, metrics consensusMetrics, params proximity.Params, logger *zap.Logger) *ConsensusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsensusService{
		sessions: sessions,
		scanLogs: scanLogs,
		tracks:   tracks,
		roster:   roster,
		cache:    cache,
		metrics:  metrics,
		params:   params,
		logger:   logger,
	}
}

// ProcessScanData is the scan queue consumer. It assigns the scan to a
// round, recomputes that round's consensus from every logged scan and
// upserts the round and student tracks.
func (s *ConsensusService) ProcessScanData(ctx context.Context, msg models.ProcessScanDataMessage) error {
	start := time.Now()

	session, err := s.sessions.FindByID(ctx, msg.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("scan references unknown session", zap.String("session_id", msg.SessionID))
			s.observe("scan-processing", "dropped")
			return nil
		}
		return err
	}

	rounds, err := s.sessions.ListRounds(ctx, msg.SessionID)
	if err != nil {
		return err
	}

	round := s.assignRound(rounds, msg)
	if round == nil {
		s.logger.Info("scan outside any round window",
			zap.String("session_id", msg.SessionID),
			zap.Time("timestamp", msg.Timestamp))
		s.observe("scan-processing", "unassigned")
		return nil
	}

	if err := s.recomputeRound(ctx, session, *round); err != nil {
		s.observe("scan-processing", "error")
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, roundResultCacheKey(round.ID))
	}
	if s.metrics != nil {
		s.metrics.ObserveConsensus(time.Since(start))
	}
	s.observe("scan-processing", "ok")
	return nil
}

// assignRound maps the message to exactly one round: an explicit round id
// wins, otherwise the earliest round whose window contains the timestamp.
// A second containing window is a data-integrity warning, not a failure.
func (s *ConsensusService) assignRound(rounds []models.Round, msg models.ProcessScanDataMessage) *models.Round {
	if msg.RoundID != "" {
		for i := range rounds {
			if rounds[i].ID == msg.RoundID {
				return &rounds[i]
			}
		}
		return nil
	}
	var assigned *models.Round
	for i := range rounds {
		if !rounds[i].Contains(msg.Timestamp) {
			continue
		}
		if assigned == nil {
			assigned = &rounds[i]
			continue
		}
		s.logger.Warn("timestamp contained by multiple rounds",
			zap.String("session_id", msg.SessionID),
			zap.String("assigned_round", assigned.ID),
			zap.String("overlapping_round", rounds[i].ID))
	}
	return assigned
}

// recomputeRound rebuilds the round's presence state from scratch. The
// decision rule is a monotone union: a student is attended once any
// qualifying observation exists in either direction, with the earliest
// qualifying timestamp kept, so processing order cannot change the result.
func (s *ConsensusService) recomputeRound(ctx context.Context, session *models.Session, round models.Round) error {
	whitelist, err := s.sessions.GetWhitelist(ctx, session.ID)
	if err != nil {
		return err
	}
	if len(whitelist.DeviceIDs) == 0 {
		// No authorized devices means no one can be observed: record an
		// explicit empty result instead of an all-absent roster.
		s.logger.Warn("session has no whitelist", zap.String("session_id", session.ID))
		return s.tracks.UpsertRoundTrack(ctx, &models.RoundTrack{
			RoundID:       round.ID,
			SessionID:     session.ID,
			Participation: models.StudentParticipationList{},
		})
	}

	enrollments, err := s.roster.ListEnrollments(ctx, session.ScheduleID)
	if err != nil {
		return err
	}

	logs, err := s.scanLogs.ListByWindow(ctx, session.ID, round.StartTime, round.EndTime)
	if err != nil {
		return err
	}

	observations, err := s.collectObservations(ctx, whitelist, round, logs)
	if err != nil {
		return err
	}

	// Every whitelisted, enrolled student gets exactly one entry, attended
	// or not, once the round has been processed at all.
	participation := make(models.StudentParticipationList, 0, len(enrollments))
	for _, e := range enrollments {
		entry := models.StudentParticipation{StudentID: e.StudentID}
		if obs, ok := observations[e.StudentID]; ok {
			t := obs.timestamp
			entry.IsAttended = true
			entry.AttendedTime = &t
		}
		participation = append(participation, entry)
	}

	track := &models.RoundTrack{
		RoundID:       round.ID,
		SessionID:     session.ID,
		Participation: participation,
	}
	if err := s.tracks.UpsertRoundTrack(ctx, track); err != nil {
		return err
	}

	for _, entry := range participation {
		if err := s.upsertStudentTrack(ctx, session.ID, round.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

// collectObservations reduces the round's window-scoped scans to the
// earliest qualifying observation per student. Non-whitelisted submitters
// and peers are discarded before any rule applies.
func (s *ConsensusService) collectObservations(ctx context.Context, whitelist *models.SessionWhitelist, round models.Round, logs []models.ScanLog) (map[string]observation, error) {
	users, err := s.roster.ResolveUsers(ctx, whitelist.DeviceIDs)
	if err != nil {
		return nil, err
	}

	best := make(map[string]observation)
	record := func(userID string, rssi int, ts time.Time, order int) {
		obs := observation{observedUser: userID, rssi: rssi, timestamp: ts, order: order}
		current, ok := best[userID]
		if !ok || obs.timestamp.Before(current.timestamp) ||
			(obs.timestamp.Equal(current.timestamp) && obs.order < current.order) {
			best[userID] = obs
		}
	}

	for order, log := range logs {
		if !whitelist.Contains(log.DeviceID) {
			s.logger.Debug("scan from non-whitelisted device ignored",
				zap.String("device_id", log.DeviceID),
				zap.String("round_id", round.ID))
			continue
		}
		submitterUser, submitterKnown := users[log.DeviceID]
		if !submitterKnown {
			s.logger.Warn("whitelisted device has no registered user",
				zap.String("device_id", log.DeviceID),
				zap.String("round_id", round.ID))
		}

		for _, peer := range log.ScannedDevices {
			if !whitelist.Contains(peer.DeviceID) {
				continue
			}
			if !s.params.Qualifies(peer.Rssi) {
				continue
			}
			// A qualifying sighting marks both ends: the submitter proved
			// it is near a whitelisted peer, and the peer was seen by a
			// whitelisted submitter.
			if submitterKnown {
				record(submitterUser, peer.Rssi, log.Timestamp, order)
			}
			peerUser, peerKnown := users[peer.DeviceID]
			if !peerKnown {
				s.logger.Warn("whitelisted device has no registered user",
					zap.String("device_id", peer.DeviceID),
					zap.String("round_id", round.ID))
				continue
			}
			record(peerUser, peer.Rssi, log.Timestamp, order)
		}
	}
	return best, nil
}

// upsertStudentTrack merges this round's outcome into the student's
// cross-round track, replacing any previous entry for the round.
func (s *ConsensusService) upsertStudentTrack(ctx context.Context, sessionID, roundID string, entry models.StudentParticipation) error {
	track, err := s.tracks.GetStudentTrack(ctx, entry.StudentID, sessionID)
	if err != nil {
		return err
	}
	if track == nil {
		track = &models.StudentTrack{StudentID: entry.StudentID, SessionID: sessionID}
	}

	updated := make(models.RoundParticipationList, 0, len(track.Participation)+1)
	for _, p := range track.Participation {
		if p.RoundID != roundID {
			updated = append(updated, p)
		}
	}
	updated = append(updated, models.RoundParticipation{
		RoundID:      roundID,
		IsAttended:   entry.IsAttended,
		AttendedTime: entry.AttendedTime,
	})
	sort.Slice(updated, func(i, j int) bool { return updated[i].RoundID < updated[j].RoundID })
	track.Participation = updated

	return s.tracks.UpsertStudentTrack(ctx, track)
}

func (s *ConsensusService) observe(queue, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveMessage(queue, outcome)
	}
}

func roundResultCacheKey(roundID string) string {
	return "round-result:" + roundID
}
