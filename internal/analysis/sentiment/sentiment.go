// Package sentiment scores headlines and aggregates the scores per ticker.
package sentiment

import (
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/headlines/pkg/models"
)

// Classification thresholds on the average score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer maps a headline to a score in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(text string) float64

// Score calls f.
func (f ScorerFunc) Score(text string) float64 { return f(text) }

// NewScorer returns the scorer named by name: "vader" (default) or "keyword".
func NewScorer(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "vader":
		return NewVaderScorer(), nil
	case "keyword":
		return KeywordScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown sentiment scorer %q", name)
	}
}

// Classify labels an average score.
func Classify(avg float64) models.Classification {
	switch {
	case avg > PositiveThreshold:
		return models.Positive
	case avg < NegativeThreshold:
		return models.Negative
	default:
		return models.Neutral
	}
}

// Average returns the arithmetic mean of scores, or 0 for none.
func Average(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// ScoreEntries scores every entry's title. The date is the entry's UTC publish day.
func ScoreEntries(s Scorer, entries []models.NewsEntry) []models.ScoredEntry {
	out := make([]models.ScoredEntry, len(entries))
	for i, e := range entries {
		out[i] = models.ScoredEntry{
			Ticker:   e.Ticker,
			Date:     e.PublishedAt.UTC(),
			Headline: e.Title,
			Score:    clamp(s.Score(e.Title)),
		}
	}
	return out
}

// Summarize aggregates scored entries of one ticker. Each entry is also classified
// individually for the positive/neutral/negative counts.
func Summarize(ticker string, scored []models.ScoredEntry) models.Summary {
	sum := models.Summary{Ticker: ticker, Count: len(scored)}
	if len(scored) == 0 {
		sum.Classification = models.Neutral
		return sum
	}

	scores := make([]float64, len(scored))
	var from, to time.Time
	for i, e := range scored {
		scores[i] = e.Score
		switch Classify(e.Score) {
		case models.Positive:
			sum.PositiveCount++
		case models.Negative:
			sum.NegativeCount++
		default:
			sum.NeutralCount++
		}
		if from.IsZero() || e.Date.Before(from) {
			from = e.Date
		}
		if e.Date.After(to) {
			to = e.Date
		}
	}

	sum.AverageScore = Average(scores)
	sum.Classification = Classify(sum.AverageScore)
	sum.From, sum.To = from, to
	return sum
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
