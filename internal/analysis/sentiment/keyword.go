package sentiment

import "strings"

// ------------------------------------------------------------------
// Keyword-based scorer (offline). Market-flavoured vocabulary that
// general lexicons like VADER treat as neutral ("upgrade", "plunge").
// ------------------------------------------------------------------

var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5, "jump": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4, "gain": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4, "layoff": 0.5,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5, "lawsuit": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"cut": 0.3, "miss": 0.5, "warning": 0.5, "concern": 0.3, "recall": 0.4,
}

// KeywordScorer scores a headline from bullish and bearish keyword weights.
// Text with no keyword scores 0.
type KeywordScorer struct{}

// Score returns (bull - bear) / (bull + bear) over matched keyword weights.
func (KeywordScorer) Score(text string) float64 {
	lower := strings.ToLower(text)

	bull, bear := 0.0, 0.0
	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bull += weight
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bear += weight
		}
	}

	total := bull + bear
	if total == 0 {
		return 0
	}
	return (bull - bear) / total
}
