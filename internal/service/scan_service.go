package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/dto"
	"github.com/noah-isme/beacon-attendance-api/internal/models"
	appErrors "github.com/noah-isme/beacon-attendance-api/pkg/errors"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

type scanLogAppender interface {
	Append(ctx context.Context, log *models.ScanLog) (*models.ScanLog, error)
}

type livenessChecker interface {
	IsSessionLive(ctx context.Context, sessionID string) (bool, error)
}

type scanPublisher interface {
	Enqueue(job jobs.Job) error
}

type scanMetrics interface {
	ObserveScanAccepted()
	ObserveScanRejected(reason string)
}

// ScanService is the scan ingestion gateway: it gates submissions on the
// session liveness flag, appends the audit log synchronously and hands the
// scan to the processing queue without waiting for round computation.
type ScanService struct {
	scanLogs  scanLogAppender
	liveness  livenessChecker
	publisher scanPublisher
	metrics   scanMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScanService constructs the gateway.
func NewScanService(scanLogs scanLogAppender, liveness livenessChecker, publisher scanPublisher, metrics scanMetrics, validate *validator.Validate, logger *zap.Logger) *ScanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{
		scanLogs:  scanLogs,
		liveness:  liveness,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// SubmitScanData accepts one device's scan report. The caller only ever
// blocks on the liveness check and the audit write; a publish failure
// after the log write is surfaced so the device resubmits, and the
// resulting duplicate log row is safe because consensus recomputes.
func (s *ScanService) SubmitScanData(ctx context.Context, req dto.SubmitScanDataRequest) (*dto.SubmitScanDataResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scan payload")
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	live, err := s.liveness.IsSessionLive(ctx, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "liveness check failed")
	}
	if !live {
		if s.metrics != nil {
			s.metrics.ObserveScanRejected("session_not_active")
		}
		return nil, appErrors.ErrSessionNotActive
	}

	scanned := make(models.ScannedDeviceList, len(req.NearbyDevices))
	for i, d := range req.NearbyDevices {
		scanned[i] = models.ScannedDevice{DeviceID: d.DeviceID, Rssi: d.Rssi}
	}

	log := &models.ScanLog{
		RequestID:       req.RequestID,
		DeviceID:        req.DeviceID,
		SubmitterUserID: req.SubmitterUserID,
		SessionID:       req.SessionID,
		Rssi:            req.RssiData,
		ScannedDevices:  scanned,
		Timestamp:       req.Timestamp,
	}
	stored, err := s.scanLogs.Append(ctx, log)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scan")
	}

	msg := models.ProcessScanDataMessage{
		RequestID:       req.RequestID,
		DeviceID:        req.DeviceID,
		SubmitterUserID: req.SubmitterUserID,
		SessionID:       req.SessionID,
		ScannedDevices:  scanned,
		Timestamp:       req.Timestamp,
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    models.MessageTypeProcessScan,
		Payload: msg,
	}
	if err := s.publisher.Enqueue(job); err != nil {
		s.logger.Error("scan publish failed after audit write",
			zap.String("session_id", req.SessionID),
			zap.String("scan_log_id", stored.ID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPublishFailed.Code, appErrors.ErrPublishFailed.Status, appErrors.ErrPublishFailed.Message)
	}

	if s.metrics != nil {
		s.metrics.ObserveScanAccepted()
	}
	s.logger.Debug("scan accepted",
		zap.String("session_id", req.SessionID),
		zap.String("device_id", req.DeviceID),
		zap.Int("nearby_devices", len(scanned)))
	return &dto.SubmitScanDataResponse{Success: true, Message: "scan accepted"}, nil
}
