package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/service"
	"sigmapips/pkg/cache"
	"sigmapips/pkg/config"
	"sigmapips/pkg/logger"
)

// --- fakes ---

type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.SubscriberPreference
	fail   error
}

func (s *fakeStore) FindDuplicate(_ context.Context, userID int64, market, instrument, timeframe string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return false, s.fail
	}
	for _, r := range s.rows {
		if r.UserID == userID && r.Market == market && r.Instrument == instrument && r.Timeframe == timeframe {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Insert(ctx context.Context, pref *models.SubscriberPreference) (*models.SubscriberPreference, error) {
	dup, err := s.FindDuplicate(ctx, pref.UserID, pref.Market, pref.Instrument, pref.Timeframe)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, models.ErrDuplicatePreference
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *pref
	stored.ID = s.nextID
	stored.CreatedAt = time.Now()
	s.rows = append(s.rows, stored)
	return &stored, nil
}

func (s *fakeStore) ListForUser(_ context.Context, userID int64) ([]models.SubscriberPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []models.SubscriberPreference
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for i, r := range s.rows {
		if r.ID == id && r.UserID == userID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return models.ErrPreferenceNotFound
}

func (s *fakeStore) ListMatching(_ context.Context, market, instrument, timeframe string) ([]models.SubscriberPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	var out []models.SubscriberPreference
	for _, r := range s.rows {
		if r.Market == market && r.Instrument == instrument && r.Timeframe == timeframe {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDelivery struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]bool
}

func (d *fakeDelivery) send(chatID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[chatID] {
		return fmt.Errorf("chat %d unreachable", chatID)
	}
	d.sent = append(d.sent, chatID)
	return nil
}

func (d *fakeDelivery) SendText(_ context.Context, chatID int64, _ string, _ [][]service.Button) error {
	return d.send(chatID)
}

func (d *fakeDelivery) SendPhoto(_ context.Context, chatID int64, _ []byte, _ string, _ [][]service.Button) error {
	return d.send(chatID)
}

func (d *fakeDelivery) EditText(_ context.Context, chatID int64, _ int64, _ string, _ [][]service.Button) error {
	return d.send(chatID)
}

func (d *fakeDelivery) AnswerCallback(context.Context, string, string) error { return nil }

func (d *fakeDelivery) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type fakeSentiment struct {
	text string
	err  error
}

func (f *fakeSentiment) Analyze(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeChart struct {
	img []byte
	err error
}

func (f *fakeChart) Render(context.Context, string, string) ([]byte, error) {
	return f.img, f.err
}

type fakeCalendar struct {
	text string
	err  error
}

func (f *fakeCalendar) Upcoming(context.Context, string) (string, error) {
	return f.text, f.err
}

type noopAudit struct{}

func (noopAudit) RecordSignal(context.Context, *models.TradingSignal) error { return nil }
func (noopAudit) RecordDelivery(context.Context, *models.TradingSignal, models.DeliveryReport) error {
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordSignalReceived(string, string) {}
func (noopMetrics) RecordDelivery(string, string)       {}
func (noopMetrics) RecordEnrichmentFailure(string)      {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordLatency(string, float64)       {}

// spyCache counts writes on top of the in-memory cache.
type spyCache struct {
	cache.Service
	mu   sync.Mutex
	sets int
}

func (c *spyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.Service.Set(ctx, key, value, ttl)
}

func (c *spyCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// --- helpers ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Pipeline.CacheTTL = time.Hour
	cfg.Pipeline.EnrichmentTimeout = time.Second
	cfg.Pipeline.DeliveryTimeout = time.Second
	return cfg
}

type pipelineEnv struct {
	pipeline *Pipeline
	store    *fakeStore
	delivery *fakeDelivery
	cache    *spyCache
}

func newPipelineEnv(t *testing.T, sentiment *fakeSentiment, chart *fakeChart, cal *fakeCalendar) *pipelineEnv {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := &fakeStore{}
	delivery := &fakeDelivery{failFor: map[int64]bool{}}
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	spy := &spyCache{Service: mem}

	p := NewPipeline(lgr, testConfig(), NewMatcher(lgr, store), spy,
		sentiment, chart, cal, delivery, noopAudit{}, noopMetrics{})

	return &pipelineEnv{pipeline: p, store: store, delivery: delivery, cache: spy}
}

func subscribe(t *testing.T, store *fakeStore, userID int64, market, sym, tf string) {
	t.Helper()
	_, err := store.Insert(context.Background(), &models.SubscriberPreference{
		UserID: userID, Market: market, Instrument: sym, Timeframe: tf,
	})
	if err != nil {
		t.Fatalf("insert preference: %v", err)
	}
}

func eurusdRequest() *models.SignalRequest {
	price, sl, tp := 1.0750, 1.0720, 1.0800
	return &models.SignalRequest{
		Market:     "forex",
		Instrument: "EURUSD",
		Timeframe:  "15m",
		Action:     "BUY",
		Price:      &price,
		StopLoss:   &sl,
		TakeProfit: &tp,
	}
}

// --- tests ---

func TestHandleSignalSingleSubscriber(t *testing.T) {
	env := newPipelineEnv(t,
		&fakeSentiment{text: "Markets are upbeat.\nDirection: BULLISH"},
		&fakeChart{img: []byte{0x89, 'P', 'N', 'G'}},
		&fakeCalendar{text: "📅 Economic Calendar for EURUSD"})
	subscribe(t, env.store, 42, "forex", "EURUSD", "15m")

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("handle signal: %v", err)
	}

	if report.TotalMatched != 1 || report.SentCount != 1 || report.FailedCount != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var text string
	if err := env.cache.Get(context.Background(), "signal:EURUSD", &text); err != nil {
		t.Fatalf("signal text not cached: %v", err)
	}
	if text == "" || !strings.Contains(text, "EURUSD") {
		t.Fatalf("cached signal text malformed: %q", text)
	}

	var img []byte
	if err := env.cache.Get(context.Background(), "chart:EURUSD", &img); err != nil {
		t.Fatalf("chart not cached: %v", err)
	}
	if len(img) == 0 {
		t.Fatalf("cached chart empty")
	}
}

func TestHandleSignalReportInvariant(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{text: "Direction: NEUTRAL"}, &fakeChart{}, &fakeCalendar{})
	for i := int64(1); i <= 5; i++ {
		subscribe(t, env.store, i, "forex", "EURUSD", "15m")
	}
	env.delivery.failFor[3] = true

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("handle signal: %v", err)
	}
	if report.SentCount+report.FailedCount != report.TotalMatched {
		t.Fatalf("report invariant violated: %+v", report)
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{}, &fakeChart{}, &fakeCalendar{})
	subscribe(t, env.store, 1, "forex", "EURUSD", "15m")
	subscribe(t, env.store, 2, "forex", "EURUSD", "15m")
	subscribe(t, env.store, 3, "forex", "EURUSD", "15m")
	env.delivery.failFor[2] = true

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("handle signal: %v", err)
	}

	if report.SentCount != 2 || report.FailedCount != 1 || report.TotalMatched != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if env.delivery.sentCount() != 2 {
		t.Fatalf("expected 2 deliveries, got %d", env.delivery.sentCount())
	}
}

func TestAllDeliveriesFailingStillSucceeds(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{}, &fakeChart{}, &fakeCalendar{})
	subscribe(t, env.store, 1, "forex", "EURUSD", "15m")
	subscribe(t, env.store, 2, "forex", "EURUSD", "15m")
	env.delivery.failFor[1] = true
	env.delivery.failFor[2] = true

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("expected success with zero sent, got %v", err)
	}
	if report.SentCount != 0 || report.FailedCount != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestSentimentDegradation(t *testing.T) {
	env := newPipelineEnv(t,
		&fakeSentiment{err: &models.EnrichmentUnavailable{Source: "sentiment", Err: errors.New("timeout")}},
		&fakeChart{}, &fakeCalendar{})
	subscribe(t, env.store, 42, "forex", "EURUSD", "15m")

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("handle signal: %v", err)
	}
	if report.SentCount != 1 {
		t.Fatalf("delivery should proceed without sentiment: %+v", report)
	}

	var text string
	if err := env.cache.Get(context.Background(), "signal:EURUSD", &text); err != nil {
		t.Fatalf("signal text not cached: %v", err)
	}
	if strings.Contains(text, "AI Verdict") {
		t.Fatalf("verdict section should be omitted: %q", text)
	}
	for _, want := range []string{"EURUSD", "BUY", "1.075", "1.072", "1.08"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q: %q", want, text)
		}
	}

	var cached string
	if err := env.cache.Get(context.Background(), "sentiment:EURUSD", &cached); err == nil {
		t.Fatalf("failed sentiment must not be cached")
	}
}

func TestValidationFailureHasNoSideEffects(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{text: "Direction: BULLISH"}, &fakeChart{}, &fakeCalendar{})
	subscribe(t, env.store, 42, "forex", "EURUSD", "15m")

	req := eurusdRequest()
	req.Instrument = ""
	req.Symbol = ""

	_, err := env.pipeline.HandleSignal(context.Background(), req)
	if !models.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if env.cache.setCount() != 0 {
		t.Fatalf("validation failure must not write cache, wrote %d", env.cache.setCount())
	}
	if env.delivery.sentCount() != 0 {
		t.Fatalf("validation failure must not deliver")
	}
}

func TestStoreUnavailableDegradesToNoRecipients(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{}, &fakeChart{}, &fakeCalendar{})
	env.store.fail = &models.StoreUnavailable{Err: errors.New("connection refused")}

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("store outage must not fail the operation: %v", err)
	}
	if report.TotalMatched != 0 || report.SentCount != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestNoSubscribersIsNotAnError(t *testing.T) {
	env := newPipelineEnv(t, &fakeSentiment{}, &fakeChart{}, &fakeCalendar{})

	report, err := env.pipeline.HandleSignal(context.Background(), eurusdRequest())
	if err != nil {
		t.Fatalf("handle signal: %v", err)
	}
	if report.TotalMatched != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
