package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations for short-lived derived artifacts.
// Values are strings or raw bytes (chart images); anything else is JSON-encoded.
// A non-positive expiration means the entry is already stale and behaves as a
// miss on the next Get.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
}

// Artifact key namespaces. Full keys are "{kind}:{instrument}".
const (
	KindSignal    = "signal"
	KindSentiment = "sentiment"
	KindChart     = "chart"
	KindCalendar  = "calendar"
)

// Key builds a namespaced artifact key for an instrument.
func Key(kind, instrument string) string {
	return fmt.Sprintf("%s:%s", kind, instrument)
}
