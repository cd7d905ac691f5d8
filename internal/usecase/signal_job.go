package usecase

import (
	"context"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/logger"
	"sigmapips/pkg/queue"
)

// SignalJobType is the queue message type for deferred signal processing.
const SignalJobType = "signal.process"

// SignalJob processes enqueued signals in the background so the webhook
// can acknowledge immediately.
type SignalJob struct {
	logger   *logger.Logger
	pipeline *Pipeline
}

// NewSignalJob creates the background signal job.
func NewSignalJob(lgr *logger.Logger, pipeline *Pipeline) *SignalJob {
	return &SignalJob{logger: lgr, pipeline: pipeline}
}

func (j *SignalJob) Name() string { return "process-trading-signal" }

func (j *SignalJob) Type() string { return SignalJobType }

// Handle runs the pipeline for one queued payload. Validation errors are
// terminal: the payload will never become valid, so they are logged and
// not retried.
func (j *SignalJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.SignalRequest](payload)
	if err != nil {
		j.logger.Error("invalid signal job payload", logger.Error(err))
		return nil
	}

	if _, err := j.pipeline.HandleSignal(ctx, req); err != nil {
		if models.IsValidationError(err) {
			j.logger.Warn("queued signal rejected", logger.Error(err))
			return nil
		}
		return err
	}
	return nil
}
