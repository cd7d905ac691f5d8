package repository

import (
	"context"

	"sigmapips/internal/domain/models"
)

// PreferenceStore owns subscriber preference rows. Implementations enforce
// uniqueness on (user, market, instrument, timeframe).
type PreferenceStore interface {
	// FindDuplicate reports whether a row already exists for the tuple.
	FindDuplicate(ctx context.Context, userID int64, market, instrument, timeframe string) (bool, error)

	// Insert stores a new preference and returns it with ID and CreatedAt set.
	// Returns models.ErrDuplicatePreference if the tuple already exists.
	Insert(ctx context.Context, pref *models.SubscriberPreference) (*models.SubscriberPreference, error)

	// ListForUser returns all preferences for a user.
	ListForUser(ctx context.Context, userID int64) ([]models.SubscriberPreference, error)

	// Delete removes a preference by id, scoped to the owning user.
	// Returns models.ErrPreferenceNotFound if no row matched.
	Delete(ctx context.Context, id, userID int64) error

	// ListMatching returns every preference row matching the routing key.
	ListMatching(ctx context.Context, market, instrument, timeframe string) ([]models.SubscriberPreference, error)
}

// AuditLog records accepted signals and their delivery outcomes.
// Append-only; failures are logged by callers and never abort a pipeline run.
type AuditLog interface {
	RecordSignal(ctx context.Context, sig *models.TradingSignal) error
	RecordDelivery(ctx context.Context, sig *models.TradingSignal, report models.DeliveryReport) error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordSignalReceived(instrument, timeframe string)
	RecordDelivery(instrument, result string)
	RecordEnrichmentFailure(source string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
