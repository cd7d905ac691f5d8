package usecase

import (
	"context"
	"encoding/json"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/logger"
)

// KafkaSignalHandler feeds signals from a Kafka topic into the pipeline.
// It implements kafka.MessageHandler.
type KafkaSignalHandler struct {
	logger   *logger.Logger
	pipeline *Pipeline
	topic    string
}

// NewKafkaSignalHandler creates a handler for the given topic.
func NewKafkaSignalHandler(lgr *logger.Logger, pipeline *Pipeline, topic string) *KafkaSignalHandler {
	return &KafkaSignalHandler{logger: lgr, pipeline: pipeline, topic: topic}
}

func (h *KafkaSignalHandler) Topic() string { return h.topic }

// Handle processes one Kafka message. Malformed payloads are poison: they
// are logged and dropped rather than retried. Infrastructure errors are
// returned so the consumer retries and eventually dead-letters.
func (h *KafkaSignalHandler) Handle(ctx context.Context, data []byte) error {
	var req models.SignalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.logger.Warn("undecodable kafka signal", logger.Error(err))
		return nil
	}

	if _, err := h.pipeline.HandleSignal(ctx, &req); err != nil {
		if models.IsValidationError(err) {
			h.logger.Warn("kafka signal rejected", logger.Error(err))
			return nil
		}
		return err
	}
	return nil
}
