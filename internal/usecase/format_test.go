package usecase

import (
	"strings"
	"testing"
	"time"

	"sigmapips/internal/domain/models"
)

func testSignal(action string) *models.TradingSignal {
	return &models.TradingSignal{
		Market:     "forex",
		Instrument: "EURUSD",
		Timeframe:  "15m",
		Action:     action,
		Price:      1.0750,
		StopLoss:   1.0720,
		TakeProfit: 1.0800,
		Strategy:   "Breakout",
		CreatedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatSignalMessageCoreFields(t *testing.T) {
	text := FormatSignalMessage(testSignal("BUY"), &models.Enrichment{})

	for _, want := range []string{
		"EURUSD", "BUY", "📈",
		"Entry Price: 1.075",
		"Stop Loss: 1.072 🔴",
		"Take Profit: 1.08 🎯",
		"Timeframe: 15m",
		"Strategy: Breakout",
		"Risk Management:",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "AI Verdict") {
		t.Fatalf("no verdict expected without sentiment")
	}
}

func TestVerdictAligned(t *testing.T) {
	enr := &models.Enrichment{Sentiment: "Strong momentum.\nDirection: BULLISH"}
	text := FormatSignalMessage(testSignal("BUY"), enr)

	if !strings.Contains(text, "SigmaPips AI Verdict") {
		t.Fatalf("missing verdict section:\n%s", text)
	}
	if !strings.Contains(text, "✅") {
		t.Fatalf("aligned signal should get a positive verdict:\n%s", text)
	}
}

func TestVerdictConflicting(t *testing.T) {
	enr := &models.Enrichment{Sentiment: "Direction: BEARISH"}
	text := FormatSignalMessage(testSignal("BUY"), enr)

	if !strings.Contains(text, "⚠️") {
		t.Fatalf("conflicting sentiment should warn:\n%s", text)
	}
}

func TestSellActionEmoji(t *testing.T) {
	text := FormatSignalMessage(testSignal("SELL"), &models.Enrichment{})
	if !strings.Contains(text, "📉") {
		t.Fatalf("sell signal should use 📉:\n%s", text)
	}
}

func TestSentimentDirectionParsing(t *testing.T) {
	cases := map[string]string{
		"blah\nDirection: BULLISH\nmore": "BULLISH",
		"direction: bearish":             "BEARISH",
		"Direction:   Neutral ":          "NEUTRAL",
		"no direction line":              "",
	}
	for in, want := range cases {
		if got := sentimentDirection(in); got != want {
			t.Fatalf("sentimentDirection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		1.0750:  "1.075",
		1.08:    "1.08",
		65000.0: "65000",
		0.5:     "0.5",
	}
	for in, want := range cases {
		if got := formatPrice(in); got != want {
			t.Fatalf("formatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}
