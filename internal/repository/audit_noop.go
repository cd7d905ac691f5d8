package repository

import (
	"context"

	"sigmapips/internal/domain/models"
)

// NoopAuditLog is used when ClickHouse is disabled.
type NoopAuditLog struct{}

func (NoopAuditLog) RecordSignal(context.Context, *models.TradingSignal) error {
	return nil
}

func (NoopAuditLog) RecordDelivery(context.Context, *models.TradingSignal, models.DeliveryReport) error {
	return nil
}
