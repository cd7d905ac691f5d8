package usecase

import (
	"context"
	"errors"
	"testing"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/logger"
)

func newTestPreferences(t *testing.T) (*Preferences, *fakeStore) {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := &fakeStore{}
	return NewPreferences(lgr, store), store
}

func TestSaveIsIdempotent(t *testing.T) {
	u, store := newTestPreferences(t)
	ctx := context.Background()

	pref, created, err := u.Save(ctx, 42, "forex", "EURUSD", "15m")
	if err != nil || !created {
		t.Fatalf("first save: created=%v err=%v", created, err)
	}
	if pref.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	_, created, err = u.Save(ctx, 42, "forex", "EURUSD", "15m")
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if created {
		t.Fatalf("duplicate tuple must not create a second row")
	}
	if len(store.rows) != 1 {
		t.Fatalf("store holds %d rows, want 1", len(store.rows))
	}
}

func TestSaveRejectsUnknownInstrument(t *testing.T) {
	u, _ := newTestPreferences(t)

	_, _, err := u.Save(context.Background(), 42, "forex", "BTCUSD", "15m")
	if !models.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteMissingRow(t *testing.T) {
	u, _ := newTestPreferences(t)

	err := u.Delete(context.Background(), 999, 42)
	if !errors.Is(err, models.ErrPreferenceNotFound) {
		t.Fatalf("expected ErrPreferenceNotFound, got %v", err)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	u, store := newTestPreferences(t)
	ctx := context.Background()
	subscribe(t, store, 42, "forex", "EURUSD", "15m")
	id := store.rows[0].ID

	if err := u.Delete(ctx, id, 7); !errors.Is(err, models.ErrPreferenceNotFound) {
		t.Fatalf("foreign user must not delete the row, got %v", err)
	}
	if err := u.Delete(ctx, id, 42); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("row not removed")
	}
}
