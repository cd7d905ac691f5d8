package models

import (
	"strings"
	"time"

	"sigmapips/pkg/util"
)

// TradingSignal is one inbound alert, validated and normalized. It lives
// for the duration of a single pipeline run and is read-only after parse.
type TradingSignal struct {
	Market     string
	Instrument string
	Timeframe  string
	Action     string // "BUY" or "SELL"
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Strategy   string
	CreatedAt  time.Time
}

// RoutingKey returns the (market, instrument, timeframe) triple used for
// subscriber matching.
func (s *TradingSignal) RoutingKey() (string, string, string) {
	return s.Market, s.Instrument, s.Timeframe
}

// SignalRequest is the raw webhook payload. Alternate field names used by
// different signal sources (symbol/instrument, interval/timeframe,
// stopLoss/stop_loss, takeProfit/take_profit) are folded during parse.
type SignalRequest struct {
	Market        string   `json:"market"`
	Instrument    string   `json:"instrument"`
	Symbol        string   `json:"symbol"`
	Timeframe     string   `json:"timeframe"`
	Interval      string   `json:"interval"`
	Action        string   `json:"action"`
	Price         *float64 `json:"price"`
	StopLoss      *float64 `json:"stop_loss"`
	StopLossAlt   *float64 `json:"stopLoss"`
	TakeProfit    *float64 `json:"take_profit"`
	TakeProfitAlt *float64 `json:"takeProfit"`
	Strategy      string   `json:"strategy"`
	CreatedAt     string   `json:"created_at"`
}

// numeric TradingView-style intervals map onto the supported timeframes
var intervalAliases = map[string]string{
	"15": "15m", "60": "1h", "240": "4h",
	"1h": "1h", "4h": "4h", "15m": "15m",
	"H1": "1h", "H4": "4h", "M15": "15m",
}

// ToSignal validates the request and builds a TradingSignal. Field folding
// and normalization happen here so the rest of the pipeline never sees the
// raw payload shapes.
func (r *SignalRequest) ToSignal(now time.Time) (*TradingSignal, error) {
	instrument := strings.ToUpper(strings.TrimSpace(firstNonEmpty(r.Instrument, r.Symbol)))
	if instrument == "" {
		return nil, NewValidationError("instrument", "is required")
	}

	market := strings.ToLower(strings.TrimSpace(r.Market))
	if market == "" {
		market = MarketForInstrument(instrument)
	}
	if !ValidMarket(market) {
		return nil, NewValidationError("market", "must be one of forex, crypto, commodities, indices")
	}

	timeframe := strings.TrimSpace(firstNonEmpty(r.Timeframe, r.Interval))
	if alias, ok := intervalAliases[timeframe]; ok {
		timeframe = alias
	}
	timeframe = strings.ToLower(timeframe)
	if !ValidTimeframe(timeframe) {
		return nil, NewValidationError("timeframe", "must be one of 15m, 1h, 4h")
	}

	action := strings.ToUpper(strings.TrimSpace(r.Action))
	if action != "BUY" && action != "SELL" {
		return nil, NewValidationError("action", "must be BUY or SELL")
	}

	// price levels must be present together or the signal is rejected
	stopLoss := firstNonNil(r.StopLoss, r.StopLossAlt)
	takeProfit := firstNonNil(r.TakeProfit, r.TakeProfitAlt)
	if r.Price == nil {
		return nil, NewValidationError("price", "is required")
	}
	if stopLoss == nil {
		return nil, NewValidationError("stop_loss", "is required")
	}
	if takeProfit == nil {
		return nil, NewValidationError("take_profit", "is required")
	}

	return &TradingSignal{
		Market:     market,
		Instrument: instrument,
		Timeframe:  timeframe,
		Action:     action,
		Price:      *r.Price,
		StopLoss:   *stopLoss,
		TakeProfit: *takeProfit,
		Strategy:   strings.TrimSpace(r.Strategy),
		CreatedAt:  util.ParseTimeDefault(r.CreatedAt, now),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
