package models

import "time"

// SubscriberPreference is one stored subscription row. The tuple
// (user, market, instrument, timeframe) is unique; changes are
// delete-and-recreate, never in-place updates.
type SubscriberPreference struct {
	ID         int64
	UserID     int64
	Market     string
	Instrument string
	Timeframe  string
	CreatedAt  time.Time
}

// Subscriber is one delivery endpoint resolved from a matching preference
// row. A user with several matching rows appears once per row.
type Subscriber struct {
	ChatID       int64
	PreferenceID int64
}

// DeliveryReport summarizes one pipeline run.
type DeliveryReport struct {
	TotalMatched int `json:"total_matched"`
	SentCount    int `json:"sent_count"`
	FailedCount  int `json:"failed_count"`
}

// Enrichment holds whatever supplementary data the collaborators produced
// for one signal. Empty fields mean the source was skipped or unavailable.
type Enrichment struct {
	Sentiment string
	Chart     []byte
	Calendar  string
}
