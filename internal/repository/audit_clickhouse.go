package repository

import (
	"context"
	"fmt"
	"time"

	"sigmapips/internal/domain/models"
	pkgch "sigmapips/pkg/clickhouse"
	"sigmapips/pkg/logger"
)

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_log (
		received_at DateTime64(3),
		market LowCardinality(String),
		instrument LowCardinality(String),
		timeframe LowCardinality(String),
		action LowCardinality(String),
		price Float64,
		stop_loss Float64,
		take_profit Float64,
		strategy String
	) ENGINE = MergeTree()
	ORDER BY (instrument, received_at)`,
	`CREATE TABLE IF NOT EXISTS delivery_log (
		delivered_at DateTime64(3),
		instrument LowCardinality(String),
		timeframe LowCardinality(String),
		total_matched UInt32,
		sent_count UInt32,
		failed_count UInt32
	) ENGINE = MergeTree()
	ORDER BY (instrument, delivered_at)`,
}

// CHAuditLog implements repository.AuditLog on ClickHouse. Both tables are
// append-only; rows are never updated or deleted.
type CHAuditLog struct {
	logger *logger.Logger
	client *pkgch.Client
}

// NewCHAuditLog ensures the audit tables exist and returns the log.
func NewCHAuditLog(lgr *logger.Logger, client *pkgch.Client) (*CHAuditLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, auditSchema); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return &CHAuditLog{logger: lgr, client: client}, nil
}

// RecordSignal appends one accepted signal.
func (a *CHAuditLog) RecordSignal(ctx context.Context, sig *models.TradingSignal) error {
	_, err := a.client.DB().ExecContext(ctx,
		`INSERT INTO signal_log
			(received_at, market, instrument, timeframe, action, price, stop_loss, take_profit, strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.CreatedAt, sig.Market, sig.Instrument, sig.Timeframe, sig.Action,
		sig.Price, sig.StopLoss, sig.TakeProfit, sig.Strategy,
	)
	if err != nil {
		return fmt.Errorf("insert signal_log: %w", err)
	}
	return nil
}

// RecordDelivery appends one delivery report.
func (a *CHAuditLog) RecordDelivery(ctx context.Context, sig *models.TradingSignal, report models.DeliveryReport) error {
	_, err := a.client.DB().ExecContext(ctx,
		`INSERT INTO delivery_log
			(delivered_at, instrument, timeframe, total_matched, sent_count, failed_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now(), sig.Instrument, sig.Timeframe,
		uint32(report.TotalMatched), uint32(report.SentCount), uint32(report.FailedCount),
	)
	if err != nil {
		return fmt.Errorf("insert delivery_log: %w", err)
	}
	return nil
}
