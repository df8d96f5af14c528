package models

import "time"

// Classification is the overall polarity label of a set of headlines.
type Classification string

const (
	Positive Classification = "Positive"
	Neutral  Classification = "Neutral"
	Negative Classification = "Negative"
)

// ScoredEntry is a headline with its sentiment score, as written to the sink.
type ScoredEntry struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Headline string    `json:"headline"`
	Score    float64   `json:"sentiment_score"` // -1.0 (negative) to +1.0 (positive)
}

// Summary aggregates the scored headlines of one ticker.
type Summary struct {
	Ticker         string         `json:"ticker"`
	Count          int            `json:"count"`
	AverageScore   float64        `json:"average_score"`
	Classification Classification `json:"classification"`
	PositiveCount  int            `json:"positive_count"`
	NeutralCount   int            `json:"neutral_count"`
	NegativeCount  int            `json:"negative_count"`
	From           time.Time      `json:"from,omitzero"`
	To             time.Time      `json:"to,omitzero"`
}
