package service

import "context"

// SentimentAnalyzer produces a short market sentiment summary for an
// instrument. The summary contains a "Direction:" line used by the
// message formatter to derive the verdict.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, instrument string) (string, error)
}

// ChartRenderer produces a chart image (PNG bytes) for an instrument and
// timeframe.
type ChartRenderer interface {
	Render(ctx context.Context, instrument, timeframe string) ([]byte, error)
}

// EconomicCalendar returns formatted upcoming economic events relevant to
// an instrument.
type EconomicCalendar interface {
	Upcoming(ctx context.Context, instrument string) (string, error)
}

// Button is one inline-keyboard button: a label and the callback data the
// channel echoes back when pressed.
type Button struct {
	Label    string
	Callback string
}

// DeliveryChannel sends messages to subscriber endpoints.
type DeliveryChannel interface {
	SendText(ctx context.Context, chatID int64, text string, buttons [][]Button) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, buttons [][]Button) error
	EditText(ctx context.Context, chatID int64, messageID int64, text string, buttons [][]Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
