package sentiment

import "github.com/jonreiter/govader"

// VaderScorer scores text with the VADER lexicon and returns its compound score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of text.
func (v *VaderScorer) Score(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}
