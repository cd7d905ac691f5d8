package usecase

import (
	"fmt"
	"strings"

	"sigmapips/internal/domain/models"
)

const divider = "--------------------------------"

// FormatSignalMessage builds the subscriber-facing message text. Sections
// for enrichment sources that failed are omitted entirely.
func FormatSignalMessage(sig *models.TradingSignal, enr *models.Enrichment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎯 <b>New Trading Signal</b> 🎯\n\n")
	fmt.Fprintf(&b, "Instrument: <b>%s</b>\n", sig.Instrument)
	fmt.Fprintf(&b, "Action: <b>%s</b> %s\n\n", sig.Action, actionEmoji(sig.Action))

	fmt.Fprintf(&b, "Entry Price: %s\n", formatPrice(sig.Price))
	fmt.Fprintf(&b, "Stop Loss: %s 🔴\n", formatPrice(sig.StopLoss))
	fmt.Fprintf(&b, "Take Profit: %s 🎯\n\n", formatPrice(sig.TakeProfit))

	fmt.Fprintf(&b, "Timeframe: %s\n", sig.Timeframe)
	if sig.Strategy != "" {
		fmt.Fprintf(&b, "Strategy: %s\n", sig.Strategy)
	}

	b.WriteString("\n" + divider + "\n\n")
	b.WriteString("<b>Risk Management:</b>\n")
	b.WriteString("• Position size: 1-2% max\n")
	b.WriteString("• Use proper stop loss\n")
	b.WriteString("• Follow your trading plan\n")

	if verdict := aiVerdict(sig, enr); verdict != "" {
		b.WriteString("\n" + divider + "\n\n")
		b.WriteString("🤖 <b>SigmaPips AI Verdict:</b>\n")
		b.WriteString(verdict)
	}

	return b.String()
}

// aiVerdict derives a one-line verdict from the sentiment summary's
// "Direction:" line. No sentiment means no verdict section.
func aiVerdict(sig *models.TradingSignal, enr *models.Enrichment) string {
	if enr == nil || enr.Sentiment == "" {
		return ""
	}

	direction := sentimentDirection(enr.Sentiment)
	if direction == "" {
		return fmt.Sprintf("Sentiment data available for %s, review before entering. ⚠️", sig.Instrument)
	}

	aligned := (sig.Action == "BUY" && direction == "BULLISH") ||
		(sig.Action == "SELL" && direction == "BEARISH")
	switch {
	case aligned:
		return fmt.Sprintf("The %s %s signal aligns with %s market sentiment. ✅",
			sig.Instrument, strings.ToLower(sig.Action), strings.ToLower(direction))
	case direction == "NEUTRAL":
		return fmt.Sprintf("Market sentiment for %s is neutral, trade the levels. ✅", sig.Instrument)
	default:
		return fmt.Sprintf("The %s %s signal runs against %s sentiment, trade with caution. ⚠️",
			sig.Instrument, strings.ToLower(sig.Action), strings.ToLower(direction))
	}
}

// sentimentDirection extracts BULLISH/BEARISH/NEUTRAL from the summary's
// "Direction:" line.
func sentimentDirection(sentiment string) string {
	for _, line := range strings.Split(sentiment, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), "direction:") {
			continue
		}
		val := strings.ToUpper(strings.TrimSpace(line[len("direction:"):]))
		for _, d := range []string{"BULLISH", "BEARISH", "NEUTRAL"} {
			if strings.Contains(val, d) {
				return d
			}
		}
	}
	return ""
}

func actionEmoji(action string) string {
	if action == "SELL" {
		return "📉"
	}
	return "📈"
}

// formatPrice trims trailing zeros so crypto and forex both read naturally.
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.5f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
