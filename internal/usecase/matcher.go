package usecase

import (
	"context"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/repository"
	"sigmapips/pkg/logger"
)

// Matcher resolves a routing key into delivery endpoints. A user with
// several matching preference rows appears once per row.
type Matcher struct {
	logger *logger.Logger
	store  repository.PreferenceStore
}

// NewMatcher creates a subscriber matcher.
func NewMatcher(lgr *logger.Logger, store repository.PreferenceStore) *Matcher {
	return &Matcher{logger: lgr, store: store}
}

// Match returns the subscribers for a routing key. An empty result is a
// legitimate "no recipients" outcome, not an error.
func (m *Matcher) Match(ctx context.Context, market, instrument, timeframe string) ([]models.Subscriber, error) {
	prefs, err := m.store.ListMatching(ctx, market, instrument, timeframe)
	if err != nil {
		return nil, err
	}

	subs := make([]models.Subscriber, 0, len(prefs))
	for _, p := range prefs {
		subs = append(subs, models.Subscriber{ChatID: p.UserID, PreferenceID: p.ID})
	}
	return subs, nil
}
