package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"sigmapips/internal/domain/service"
	"sigmapips/internal/service/telegram"
	"sigmapips/pkg/cache"
	"sigmapips/pkg/logger"
)

type botCall struct {
	method  string
	chatID  int64
	text    string
	buttons [][]service.Button
}

type recordingBot struct {
	mu    sync.Mutex
	calls []botCall
}

func (b *recordingBot) record(c botCall) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
}

func (b *recordingBot) SendText(_ context.Context, chatID int64, text string, buttons [][]service.Button) error {
	b.record(botCall{method: "sendText", chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (b *recordingBot) SendPhoto(_ context.Context, chatID int64, _ []byte, caption string, buttons [][]service.Button) error {
	b.record(botCall{method: "sendPhoto", chatID: chatID, text: caption, buttons: buttons})
	return nil
}

func (b *recordingBot) EditText(_ context.Context, chatID int64, _ int64, text string, buttons [][]service.Button) error {
	b.record(botCall{method: "editText", chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (b *recordingBot) AnswerCallback(context.Context, string, string) error { return nil }

func (b *recordingBot) last(t *testing.T) botCall {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		t.Fatalf("no bot calls recorded")
	}
	return b.calls[len(b.calls)-1]
}

type countingSentiment struct {
	mu    sync.Mutex
	calls int
	text  string
}

func (s *countingSentiment) Analyze(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, nil
}

func newMenuEnv(t *testing.T) (*BotInteractor, *recordingBot, *fakeStore, *countingSentiment) {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	bot := &recordingBot{}
	store := &fakeStore{}
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { mem.Close() })
	sent := &countingSentiment{text: "Direction: NEUTRAL"}

	b := NewBotInteractor(lgr, testConfig(), bot, NewPreferences(lgr, store), mem,
		sent, &fakeChart{img: []byte{0x89, 'P', 'N', 'G'}}, &fakeCalendar{text: "calendar"})
	return b, bot, store, sent
}

func callbackUpdate(userID, chatID int64, data string) *telegram.Update {
	return &telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb1",
			From:    &telegram.User{ID: userID},
			Message: &telegram.Message{MessageID: 10, Chat: &telegram.Chat{ID: chatID}},
			Data:    data,
		},
	}
}

func TestMenuCommandShowsMarkets(t *testing.T) {
	b, bot, _, _ := newMenuEnv(t)

	upd := &telegram.Update{Message: &telegram.Message{
		Chat: &telegram.Chat{ID: 5},
		From: &telegram.User{ID: 5},
		Text: "/menu",
	}}
	if err := b.HandleUpdate(context.Background(), upd); err != nil {
		t.Fatalf("handle: %v", err)
	}

	call := bot.last(t)
	if len(call.buttons) != 4 {
		t.Fatalf("expected 4 market rows, got %d", len(call.buttons))
	}
	if call.buttons[0][0].Callback != "market_forex" {
		t.Fatalf("unexpected first button %q", call.buttons[0][0].Callback)
	}
}

func TestStatusCommandCountsSubscriptions(t *testing.T) {
	b, bot, store, _ := newMenuEnv(t)
	subscribe(t, store, 5, "forex", "EURUSD", "15m")
	subscribe(t, store, 5, "crypto", "BTCUSD", "1h")

	upd := &telegram.Update{Message: &telegram.Message{
		Chat: &telegram.Chat{ID: 5},
		From: &telegram.User{ID: 5},
		Text: "/status",
	}}
	if err := b.HandleUpdate(context.Background(), upd); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(bot.last(t).text, "Active subscriptions: 2") {
		t.Fatalf("unexpected status text %q", bot.last(t).text)
	}
}

func TestMarketCallbackShowsInstruments(t *testing.T) {
	b, bot, _, _ := newMenuEnv(t)

	if err := b.HandleUpdate(context.Background(), callbackUpdate(5, 5, "market_crypto")); err != nil {
		t.Fatalf("handle: %v", err)
	}

	call := bot.last(t)
	if call.method != "editText" {
		t.Fatalf("expected edit, got %s", call.method)
	}
	// 5 instruments + back row
	if len(call.buttons) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(call.buttons))
	}
	if call.buttons[0][0].Callback != "instrument_crypto_BTCUSD" {
		t.Fatalf("unexpected callback %q", call.buttons[0][0].Callback)
	}
}

func TestTimeframeCallbackSavesPreference(t *testing.T) {
	b, bot, store, _ := newMenuEnv(t)
	ctx := context.Background()

	if err := b.HandleUpdate(ctx, callbackUpdate(42, 42, "timeframe_forex_EURUSD_15m")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(store.rows))
	}
	if !strings.Contains(bot.last(t).text, "Subscribed") {
		t.Fatalf("expected confirmation, got %q", bot.last(t).text)
	}

	// same tuple again: no new row, different wording
	if err := b.HandleUpdate(ctx, callbackUpdate(42, 42, "timeframe_forex_EURUSD_15m")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("duplicate created a row")
	}
	if !strings.Contains(bot.last(t).text, "already subscribed") {
		t.Fatalf("expected duplicate notice, got %q", bot.last(t).text)
	}
}

func TestDeleteCallbackRemovesPreference(t *testing.T) {
	b, bot, store, _ := newMenuEnv(t)
	subscribe(t, store, 42, "forex", "EURUSD", "15m")
	id := store.rows[0].ID

	data := fmt.Sprintf("delete_%d", id)
	if err := b.HandleUpdate(context.Background(), callbackUpdate(42, 42, data)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("row not deleted")
	}
	if !strings.Contains(bot.last(t).text, "no subscriptions") {
		t.Fatalf("expected empty list, got %q", bot.last(t).text)
	}
}

func TestSentimentRefreshWriteThrough(t *testing.T) {
	b, bot, _, sent := newMenuEnv(t)
	ctx := context.Background()

	// miss: regenerate and cache
	if err := b.HandleUpdate(ctx, callbackUpdate(5, 5, "sentiment_EURUSD")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sent.calls != 1 {
		t.Fatalf("expected 1 analyzer call, got %d", sent.calls)
	}
	if !strings.Contains(bot.last(t).text, "Direction: NEUTRAL") {
		t.Fatalf("expected sentiment text, got %q", bot.last(t).text)
	}

	// hit: served from cache
	if err := b.HandleUpdate(ctx, callbackUpdate(5, 5, "sentiment_EURUSD")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sent.calls != 1 {
		t.Fatalf("cache hit should not re-run analyzer, calls=%d", sent.calls)
	}
}

func TestChartRefreshSendsPhoto(t *testing.T) {
	b, bot, _, _ := newMenuEnv(t)

	if err := b.HandleUpdate(context.Background(), callbackUpdate(5, 5, "analysis_EURUSD")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if bot.last(t).method != "sendPhoto" {
		t.Fatalf("expected photo, got %s", bot.last(t).method)
	}
}
