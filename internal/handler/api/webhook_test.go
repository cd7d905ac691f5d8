package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/service"
	"sigmapips/internal/usecase"
	"sigmapips/pkg/cache"
	"sigmapips/pkg/config"
	xlogger "sigmapips/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubStore struct {
	mu   sync.Mutex
	rows []models.SubscriberPreference
}

func (s *stubStore) FindDuplicate(context.Context, int64, string, string, string) (bool, error) {
	return false, nil
}

func (s *stubStore) Insert(_ context.Context, pref *models.SubscriberPreference) (*models.SubscriberPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *pref
	stored.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, stored)
	return &stored, nil
}

func (s *stubStore) ListForUser(context.Context, int64) ([]models.SubscriberPreference, error) {
	return nil, nil
}

func (s *stubStore) Delete(context.Context, int64, int64) error { return nil }

func (s *stubStore) ListMatching(_ context.Context, market, instrument, timeframe string) ([]models.SubscriberPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SubscriberPreference
	for _, r := range s.rows {
		if r.Market == market && r.Instrument == instrument && r.Timeframe == timeframe {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubBot struct {
	mu    sync.Mutex
	sends int
}

func (b *stubBot) bump() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sends++
	return nil
}

func (b *stubBot) SendText(context.Context, int64, string, [][]service.Button) error { return b.bump() }
func (b *stubBot) SendPhoto(context.Context, int64, []byte, string, [][]service.Button) error {
	return b.bump()
}
func (b *stubBot) EditText(context.Context, int64, int64, string, [][]service.Button) error {
	return b.bump()
}
func (b *stubBot) AnswerCallback(context.Context, string, string) error { return nil }

type stubSentiment struct{}

func (stubSentiment) Analyze(context.Context, string) (string, error) {
	return "Direction: NEUTRAL", nil
}

type stubChart struct{}

func (stubChart) Render(context.Context, string, string) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type stubCalendar struct{}

func (stubCalendar) Upcoming(context.Context, string) (string, error) { return "calendar", nil }

type stubAudit struct{}

func (stubAudit) RecordSignal(context.Context, *models.TradingSignal) error { return nil }
func (stubAudit) RecordDelivery(context.Context, *models.TradingSignal, models.DeliveryReport) error {
	return nil
}

type stubMetrics struct{}

func (stubMetrics) RecordSignalReceived(string, string) {}
func (stubMetrics) RecordDelivery(string, string)       {}
func (stubMetrics) RecordEnrichmentFailure(string)      {}
func (stubMetrics) RecordError(string)                  {}
func (stubMetrics) RecordLatency(string, float64)       {}

func newTestHandler(t *testing.T) (*WebhookHandler, *stubStore, *stubBot) {
	t.Helper()
	lgr, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	cfg := &config.Config{}
	cfg.Pipeline.CacheTTL = time.Hour
	cfg.Pipeline.EnrichmentTimeout = time.Second
	cfg.Pipeline.DeliveryTimeout = time.Second

	store := &stubStore{}
	bot := &stubBot{}
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })

	pipeline := usecase.NewPipeline(lgr, cfg, usecase.NewMatcher(lgr, store), mem,
		stubSentiment{}, stubChart{}, stubCalendar{}, bot, stubAudit{}, stubMetrics{})
	prefs := usecase.NewPreferences(lgr, store)
	interactor := usecase.NewBotInteractor(lgr, cfg, bot, prefs, mem,
		stubSentiment{}, stubChart{}, stubCalendar{})

	return NewWebhookHandler(lgr, pipeline, interactor, nil), store, bot
}

func perform(h *WebhookHandler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := perform(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestSignalEndpointProcessesInline(t *testing.T) {
	h, store, bot := newTestHandler(t)
	store.Insert(context.Background(), &models.SubscriberPreference{
		UserID: 42, Market: "forex", Instrument: "EURUSD", Timeframe: "15m",
	})

	body := `{"market":"forex","instrument":"EURUSD","timeframe":"15m","action":"BUY","price":1.0750,"stop_loss":1.0720,"take_profit":1.0800}`
	rec := perform(h, http.MethodPost, "/signal", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			TotalMatched int `json:"total_matched"`
			SentCount    int `json:"sent_count"`
			FailedCount  int `json:"failed_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalMatched != 1 || resp.Data.SentCount != 1 {
		t.Fatalf("unexpected report: %+v", resp.Data)
	}
	if bot.sends != 1 {
		t.Fatalf("expected 1 delivery, got %d", bot.sends)
	}
}

func TestSignalEndpointRejectsMalformedPayload(t *testing.T) {
	h, _, bot := newTestHandler(t)

	body := `{"market":"forex","timeframe":"15m","action":"BUY","price":1.0750,"stop_loss":1.0720,"take_profit":1.0800}`
	rec := perform(h, http.MethodPost, "/signal", body)

	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("expected embedded 400, got %d", resp.Status)
	}
	if bot.sends != 0 {
		t.Fatalf("rejected payload must not deliver")
	}
}

func TestWebhookRoutesTelegramUpdate(t *testing.T) {
	h, _, bot := newTestHandler(t)

	body := `{"update_id":1,"message":{"message_id":2,"chat":{"id":5},"from":{"id":5},"text":"/menu"}}`
	rec := perform(h, http.MethodPost, "/webhook", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "success") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if bot.sends != 1 {
		t.Fatalf("expected menu reply, got %d sends", bot.sends)
	}
}

func TestWebhookAcceptsSignalPayload(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := `{"symbol":"EURUSD","interval":"15","action":"BUY","price":1.0750,"stopLoss":1.0720,"takeProfit":1.0800}`
	rec := perform(h, http.MethodPost, "/webhook", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "success") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestWebhookMalformedSignalStays2xx(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := `{"action":"BUY","price":1.0750}`
	rec := perform(h, http.MethodPost, "/webhook", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("webhook must always ack with 2xx, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("expected error flag, got %q", rec.Body.String())
	}
}
