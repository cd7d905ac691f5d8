package usecase

import (
	"context"
	"errors"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/repository"
	"sigmapips/pkg/logger"
)

// Preferences manages subscriber subscriptions on top of the preference
// store. Saving is idempotent: a duplicate tuple is reported, not stored
// twice.
type Preferences struct {
	logger *logger.Logger
	store  repository.PreferenceStore
}

// NewPreferences creates the preferences usecase.
func NewPreferences(lgr *logger.Logger, store repository.PreferenceStore) *Preferences {
	return &Preferences{logger: lgr, store: store}
}

// Save stores a subscription. Returns the stored row and created=false when
// the tuple already existed.
func (u *Preferences) Save(ctx context.Context, userID int64, market, instrument, timeframe string) (*models.SubscriberPreference, bool, error) {
	if !models.ValidMarket(market) {
		return nil, false, models.NewValidationError("market", "unknown market")
	}
	if !models.InstrumentInMarket(market, instrument) {
		return nil, false, models.NewValidationError("instrument", "not in market")
	}
	if !models.ValidTimeframe(timeframe) {
		return nil, false, models.NewValidationError("timeframe", "unknown timeframe")
	}

	pref, err := u.store.Insert(ctx, &models.SubscriberPreference{
		UserID:     userID,
		Market:     market,
		Instrument: instrument,
		Timeframe:  timeframe,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicatePreference) {
			return nil, false, nil
		}
		return nil, false, err
	}

	u.logger.Info("preference saved",
		logger.Int64("user_id", userID),
		logger.String("instrument", instrument),
		logger.String("timeframe", timeframe))
	return pref, true, nil
}

// List returns all subscriptions for a user.
func (u *Preferences) List(ctx context.Context, userID int64) ([]models.SubscriberPreference, error) {
	return u.store.ListForUser(ctx, userID)
}

// Delete removes a subscription owned by the user.
func (u *Preferences) Delete(ctx context.Context, id, userID int64) error {
	if err := u.store.Delete(ctx, id, userID); err != nil {
		return err
	}
	u.logger.Info("preference deleted",
		logger.Int64("user_id", userID),
		logger.Int64("preference_id", id))
	return nil
}
