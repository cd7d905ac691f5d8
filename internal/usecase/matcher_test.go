package usecase

import (
	"context"
	"errors"
	"testing"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/logger"
)

func newTestMatcher(t *testing.T) (*Matcher, *fakeStore) {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := &fakeStore{}
	return NewMatcher(lgr, store), store
}

func TestMatchReturnsOneEntryPerRow(t *testing.T) {
	m, store := newTestMatcher(t)
	subscribe(t, store, 1, "forex", "EURUSD", "15m")
	subscribe(t, store, 2, "forex", "EURUSD", "15m")
	subscribe(t, store, 2, "forex", "GBPUSD", "15m")

	subs, err := m.Match(context.Background(), "forex", "EURUSD", "15m")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscribers, got %d", len(subs))
	}
}

func TestMatchEmptyIsNotAnError(t *testing.T) {
	m, _ := newTestMatcher(t)

	subs, err := m.Match(context.Background(), "crypto", "BTCUSD", "1h")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected empty, got %d", len(subs))
	}
}

func TestMatchPropagatesStoreUnavailable(t *testing.T) {
	m, store := newTestMatcher(t)
	store.fail = &models.StoreUnavailable{Err: errors.New("down")}

	_, err := m.Match(context.Background(), "forex", "EURUSD", "15m")
	if !models.IsStoreUnavailable(err) {
		t.Fatalf("expected StoreUnavailable, got %v", err)
	}
}
