package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/beacon-attendance-api/internal/models"
	"github.com/noah-isme/beacon-attendance-api/pkg/jobs"
)

// PipelineWorker bridges queue jobs to the pipeline consumers. It exists
// so the queues can be constructed before the services that publish to
// them; Bind must be called before the queues start.
type PipelineWorker struct {
	consensus *ConsensusService
	finalize  *FinalizeService
	logger    *zap.Logger
}

// NewPipelineWorker constructs an unbound worker.
func NewPipelineWorker(logger *zap.Logger) *PipelineWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineWorker{logger: logger}
}

// Bind attaches the consumers.
func (w *PipelineWorker) Bind(consensus *ConsensusService, finalize *FinalizeService) {
	w.consensus = consensus
	w.finalize = finalize
}

// HandleScan consumes the scan-processing queue.
func (w *PipelineWorker) HandleScan(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(models.ProcessScanDataMessage)
	if !ok {
		// Malformed payloads are not retryable: log with context and drop.
		w.logger.Error("malformed scan job payload",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Any("payload", job.Payload))
		return nil
	}
	return w.consensus.ProcessScanData(ctx, msg)
}

// HandleCalculation consumes the attendance-calculation queue, which
// carries both round calculation and session finalization messages.
func (w *PipelineWorker) HandleCalculation(ctx context.Context, job jobs.Job) error {
	switch msg := job.Payload.(type) {
	case models.CalculateRoundAttendanceMessage:
		return w.finalize.ProcessCalculation(ctx, msg)
	case models.SessionFinalAttendanceToProcess:
		return w.finalize.ProcessFinalAttendance(ctx, msg)
	default:
		w.logger.Error("malformed calculation job payload",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Any("payload", job.Payload))
		return nil
	}
}
