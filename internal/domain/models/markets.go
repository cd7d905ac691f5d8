package models

// Markets supported by the bot, in menu display order.
const (
	MarketForex       = "forex"
	MarketCrypto      = "crypto"
	MarketCommodities = "commodities"
	MarketIndices     = "indices"
)

// MarketOrder is the display order for the market selection menu.
var MarketOrder = []string{MarketForex, MarketCrypto, MarketCommodities, MarketIndices}

// MarketInstruments lists the tradable instruments per market.
var MarketInstruments = map[string][]string{
	MarketForex:       {"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD"},
	MarketCrypto:      {"BTCUSD", "ETHUSD", "XRPUSD", "ADAUSD", "SOLUSD"},
	MarketCommodities: {"XAUUSD", "XAGUSD", "WTIUSD", "XCUUSD", "NATGAS"},
	MarketIndices:     {"SPX500", "NAS100", "US30", "GER40", "UK100"},
}

// Timeframes supported for subscriptions and signals.
var Timeframes = []string{"15m", "1h", "4h"}

// ValidMarket reports whether m is a supported market.
func ValidMarket(m string) bool {
	_, ok := MarketInstruments[m]
	return ok
}

// ValidTimeframe reports whether tf is a supported timeframe.
func ValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// InstrumentInMarket reports whether sym belongs to market m.
func InstrumentInMarket(m, sym string) bool {
	for _, s := range MarketInstruments[m] {
		if s == sym {
			return true
		}
	}
	return false
}

// MarketForInstrument returns the market that lists sym, or "" if unknown.
func MarketForInstrument(sym string) string {
	for _, m := range MarketOrder {
		if InstrumentInMarket(m, sym) {
			return m
		}
	}
	return ""
}
