package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/service"
	"sigmapips/internal/service/telegram"
	"sigmapips/pkg/cache"
	"sigmapips/pkg/config"
	"sigmapips/pkg/logger"
)

var marketLabels = map[string]string{
	models.MarketForex:       "💱 Forex",
	models.MarketCrypto:      "₿ Crypto",
	models.MarketCommodities: "🛢️ Commodities",
	models.MarketIndices:     "📈 Indices",
}

// BotInteractor drives the subscription menu and the refresh actions
// attached to signal messages. The menu is stateless: callback data carries
// the full selection path (market → instrument → timeframe), so no per-chat
// state is stored.
type BotInteractor struct {
	logger    *logger.Logger
	bot       service.DeliveryChannel
	prefs     *Preferences
	cache     cache.Service
	sentiment service.SentimentAnalyzer
	chart     service.ChartRenderer
	calendar  service.EconomicCalendar
	cacheTTL  time.Duration
}

// NewBotInteractor creates the menu handler.
func NewBotInteractor(
	lgr *logger.Logger,
	cfg *config.Config,
	bot service.DeliveryChannel,
	prefs *Preferences,
	cacheSvc cache.Service,
	sentiment service.SentimentAnalyzer,
	chart service.ChartRenderer,
	calendar service.EconomicCalendar,
) *BotInteractor {
	return &BotInteractor{
		logger:    lgr,
		bot:       bot,
		prefs:     prefs,
		cache:     cacheSvc,
		sentiment: sentiment,
		chart:     chart,
		calendar:  calendar,
		cacheTTL:  cfg.Pipeline.CacheTTL,
	}
}

// HandleUpdate routes one inbound Telegram update.
func (b *BotInteractor) HandleUpdate(ctx context.Context, upd *telegram.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && strings.HasPrefix(upd.Message.Text, "/"):
		return b.handleCommand(ctx, upd.Message)
	default:
		return nil
	}
}

func (b *BotInteractor) handleCommand(ctx context.Context, msg *telegram.Message) error {
	chatID := msg.Chat.ID
	cmd := strings.Fields(msg.Text)[0]
	cmd = strings.TrimSuffix(cmd, "@SigmaPipsBot")

	switch cmd {
	case "/start":
		text := "👋 Welcome to <b>SigmaPips</b>!\n\n" +
			"I deliver trading signals for the markets you subscribe to.\n" +
			"Pick a market to set up your first subscription:"
		return b.bot.SendText(ctx, chatID, text, b.marketKeyboard())
	case "/menu":
		return b.bot.SendText(ctx, chatID, "Select a market:", b.marketKeyboard())
	case "/preferences":
		text, buttons, err := b.renderPreferences(ctx, msg.From.ID)
		if err != nil {
			return err
		}
		return b.bot.SendText(ctx, chatID, text, buttons)
	case "/status":
		prefs, err := b.prefs.List(ctx, msg.From.ID)
		if err != nil {
			b.logger.Error("list preferences failed", logger.Error(err))
			return b.bot.SendText(ctx, chatID, "⚠️ Could not load your status right now.", nil)
		}
		text := fmt.Sprintf("🤖 SigmaPips is online.\nActive subscriptions: %d\nUse /preferences to manage them.", len(prefs))
		return b.bot.SendText(ctx, chatID, text, nil)
	case "/help":
		text := "Commands:\n" +
			"/menu - subscribe to signals\n" +
			"/preferences - view and remove subscriptions\n" +
			"/status - bot status and subscription count\n" +
			"/help - this message"
		return b.bot.SendText(ctx, chatID, text, nil)
	default:
		return b.bot.SendText(ctx, chatID, "Unknown command. Try /menu or /help.", nil)
	}
}

func (b *BotInteractor) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) error {
	if err := b.bot.AnswerCallback(ctx, cb.ID, ""); err != nil {
		b.logger.Warn("answer callback failed", logger.Error(err))
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID
	data := cb.Data

	switch {
	case data == "back_to_markets":
		return b.bot.EditText(ctx, chatID, messageID, "Select a market:", b.marketKeyboard())

	case data == "view_preferences":
		text, buttons, err := b.renderPreferences(ctx, userID)
		if err != nil {
			return err
		}
		return b.bot.EditText(ctx, chatID, messageID, text, buttons)

	case strings.HasPrefix(data, "market_"):
		market := strings.TrimPrefix(data, "market_")
		return b.showInstruments(ctx, chatID, messageID, market)

	case strings.HasPrefix(data, "instrument_"):
		parts := strings.Split(data, "_")
		if len(parts) != 3 {
			return nil
		}
		return b.showTimeframes(ctx, chatID, messageID, parts[1], parts[2])

	case strings.HasPrefix(data, "timeframe_"):
		parts := strings.Split(data, "_")
		if len(parts) != 4 {
			return nil
		}
		return b.savePreference(ctx, chatID, messageID, userID, parts[1], parts[2], parts[3])

	case strings.HasPrefix(data, "delete_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "delete_"), 10, 64)
		if err != nil {
			return nil
		}
		return b.deletePreference(ctx, chatID, messageID, userID, id)

	case strings.HasPrefix(data, "analysis_"):
		return b.refreshChart(ctx, chatID, strings.TrimPrefix(data, "analysis_"))

	case strings.HasPrefix(data, "sentiment_"):
		return b.refreshSentiment(ctx, chatID, strings.TrimPrefix(data, "sentiment_"))

	case strings.HasPrefix(data, "calendar_"):
		return b.refreshCalendar(ctx, chatID, strings.TrimPrefix(data, "calendar_"))

	default:
		b.logger.Warn("unknown callback", logger.String("data", data))
		return nil
	}
}

func (b *BotInteractor) marketKeyboard() [][]service.Button {
	rows := make([][]service.Button, 0, len(models.MarketOrder))
	for _, m := range models.MarketOrder {
		rows = append(rows, []service.Button{{Label: marketLabels[m], Callback: "market_" + m}})
	}
	return rows
}

func (b *BotInteractor) showInstruments(ctx context.Context, chatID, messageID int64, market string) error {
	instruments, ok := models.MarketInstruments[market]
	if !ok {
		return b.bot.EditText(ctx, chatID, messageID, "Select a market:", b.marketKeyboard())
	}

	rows := make([][]service.Button, 0, len(instruments)+1)
	for _, sym := range instruments {
		rows = append(rows, []service.Button{{
			Label:    sym,
			Callback: fmt.Sprintf("instrument_%s_%s", market, sym),
		}})
	}
	rows = append(rows, []service.Button{{Label: "⬅️ Back", Callback: "back_to_markets"}})

	return b.bot.EditText(ctx, chatID, messageID,
		fmt.Sprintf("Select an instrument (%s):", marketLabels[market]), rows)
}

func (b *BotInteractor) showTimeframes(ctx context.Context, chatID, messageID int64, market, sym string) error {
	rows := make([][]service.Button, 0, len(models.Timeframes)+1)
	for _, tf := range models.Timeframes {
		rows = append(rows, []service.Button{{
			Label:    tf,
			Callback: fmt.Sprintf("timeframe_%s_%s_%s", market, sym, tf),
		}})
	}
	rows = append(rows, []service.Button{{Label: "⬅️ Back", Callback: "market_" + market}})

	return b.bot.EditText(ctx, chatID, messageID,
		fmt.Sprintf("Select a timeframe for %s:", sym), rows)
}

func (b *BotInteractor) savePreference(ctx context.Context, chatID, messageID, userID int64, market, sym, tf string) error {
	followup := [][]service.Button{
		{{Label: "➕ Add More", Callback: "back_to_markets"}},
		{{Label: "📋 My Preferences", Callback: "view_preferences"}},
	}

	_, created, err := b.prefs.Save(ctx, userID, market, sym, tf)
	if err != nil {
		b.logger.Error("save preference failed", logger.Error(err))
		return b.bot.EditText(ctx, chatID, messageID,
			"⚠️ Could not save your subscription, please try again.", followup)
	}

	text := fmt.Sprintf("✅ Subscribed to <b>%s %s</b> signals.", sym, tf)
	if !created {
		text = fmt.Sprintf("You are already subscribed to <b>%s %s</b>.", sym, tf)
	}
	return b.bot.EditText(ctx, chatID, messageID, text, followup)
}

func (b *BotInteractor) deletePreference(ctx context.Context, chatID, messageID, userID, id int64) error {
	if err := b.prefs.Delete(ctx, id, userID); err != nil {
		b.logger.Warn("delete preference failed", logger.Error(err))
	}
	text, buttons, err := b.renderPreferences(ctx, userID)
	if err != nil {
		return err
	}
	return b.bot.EditText(ctx, chatID, messageID, text, buttons)
}

func (b *BotInteractor) renderPreferences(ctx context.Context, userID int64) (string, [][]service.Button, error) {
	prefs, err := b.prefs.List(ctx, userID)
	if err != nil {
		b.logger.Error("list preferences failed", logger.Error(err))
		return "⚠️ Could not load your subscriptions right now.", nil, nil
	}

	if len(prefs) == 0 {
		return "You have no subscriptions yet. Use /menu to add one.",
			[][]service.Button{{{Label: "➕ Subscribe", Callback: "back_to_markets"}}}, nil
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Your subscriptions:</b>\n")
	rows := make([][]service.Button, 0, len(prefs)+1)
	for _, p := range prefs {
		fmt.Fprintf(&sb, "\n• %s %s (%s)", p.Instrument, p.Timeframe, p.Market)
		rows = append(rows, []service.Button{{
			Label:    fmt.Sprintf("🗑 %s %s", p.Instrument, p.Timeframe),
			Callback: fmt.Sprintf("delete_%d", p.ID),
		}})
	}
	rows = append(rows, []service.Button{{Label: "➕ Add More", Callback: "back_to_markets"}})
	return sb.String(), rows, nil
}

// refreshChart serves a cached chart or regenerates it on a miss,
// re-populating the cache for the next request.
func (b *BotInteractor) refreshChart(ctx context.Context, chatID int64, sym string) error {
	key := cache.Key(cache.KindChart, sym)

	var img []byte
	if err := b.cache.Get(ctx, key, &img); err != nil || len(img) == 0 {
		tf := "1h"
		fresh, rerr := b.chart.Render(ctx, sym, tf)
		if rerr != nil {
			b.logger.Warn("chart refresh failed", logger.String("instrument", sym), logger.Error(rerr))
			return b.bot.SendText(ctx, chatID,
				fmt.Sprintf("⚠️ Chart for %s is unavailable right now.", sym), nil)
		}
		img = fresh
		if err := b.cache.Set(ctx, key, img, b.cacheTTL); err != nil {
			b.logger.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		}
	}

	return b.bot.SendPhoto(ctx, chatID, img, fmt.Sprintf("📊 %s technical analysis", sym), nil)
}

func (b *BotInteractor) refreshSentiment(ctx context.Context, chatID int64, sym string) error {
	key := cache.Key(cache.KindSentiment, sym)

	var text string
	if err := b.cache.Get(ctx, key, &text); err != nil || text == "" {
		fresh, aerr := b.sentiment.Analyze(ctx, sym)
		if aerr != nil {
			b.logger.Warn("sentiment refresh failed", logger.String("instrument", sym), logger.Error(aerr))
			return b.bot.SendText(ctx, chatID,
				fmt.Sprintf("⚠️ Sentiment for %s is unavailable right now.", sym), nil)
		}
		text = fresh
		if err := b.cache.Set(ctx, key, text, b.cacheTTL); err != nil {
			b.logger.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		}
	}

	return b.bot.SendText(ctx, chatID, fmt.Sprintf("📰 <b>%s Market Sentiment</b>\n\n%s", sym, text), nil)
}

func (b *BotInteractor) refreshCalendar(ctx context.Context, chatID int64, sym string) error {
	key := cache.Key(cache.KindCalendar, sym)

	var text string
	if err := b.cache.Get(ctx, key, &text); err != nil || text == "" {
		fresh, cerr := b.calendar.Upcoming(ctx, sym)
		if cerr != nil {
			b.logger.Warn("calendar refresh failed", logger.String("instrument", sym), logger.Error(cerr))
			return b.bot.SendText(ctx, chatID,
				fmt.Sprintf("⚠️ Calendar for %s is unavailable right now.", sym), nil)
		}
		text = fresh
		if err := b.cache.Set(ctx, key, text, b.cacheTTL); err != nil {
			b.logger.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		}
	}

	return b.bot.SendText(ctx, chatID, text, nil)
}
